package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"snapgram/internal/app"
	"snapgram/internal/models"
)

// Profile is a user with their loaded posts.
type Profile struct {
	User  models.User   `json:"user"`
	Posts []models.Post `json:"posts"`
}

// NewUserCommand creates the user command.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user <username>",
		Short: "Show a profile and its posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				u, ok := a.Fixtures.UserByUsername(args[0])
				if !ok {
					if cur, signedIn := a.Auth.CurrentUser(); signedIn && cur.Username == args[0] {
						u, ok = cur, true
					}
				}
				if !ok {
					return out.Fail(NewExitError(ExitFailure, fmt.Sprintf("user %s not found", args[0])))
				}

				profile := Profile{User: u, Posts: a.Posts.PostsByUser(u.ID)}

				var b strings.Builder
				b.WriteString(userLine(u))
				if u.Bio != "" {
					b.WriteString("\n" + u.Bio)
				}
				fmt.Fprintf(&b, "\n%d followers, %d following, %d posts", len(u.Followers), len(u.Following), u.PostsCount)
				if len(profile.Posts) > 0 {
					b.WriteString("\n\n" + renderPosts(profile.Posts, ""))
				}
				return out.Success(profile, b.String())
			})
		},
	}
}
