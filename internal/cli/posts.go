package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"snapgram/internal/app"
	"snapgram/internal/models"
)

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				viewer := ""
				if u, ok := a.Auth.CurrentUser(); ok {
					viewer = u.ID
				}
				feed := a.Posts.FeedPosts(viewer)
				if limit > 0 && len(feed) > limit {
					feed = feed[:limit]
				}
				return out.Success(feed, renderPosts(feed, viewer))
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n posts (0 for all)")

	return cmd
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		images   []string
		location string
	)

	cmd := &cobra.Command{
		Use:   "post <caption>",
		Short: "Share a new post as the logged-in user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				u, err := requireUser(a, out)
				if err != nil {
					return err
				}

				form := models.PostForm{Caption: strings.Join(args, " "), Location: location}
				for _, name := range images {
					form.Images = append(form.Images, models.ImageInput{Name: name})
				}

				p, res := a.Posts.CreatePost(ctx, form, u.ID)
				if !res.Success {
					return out.Fail(NewExitError(ExitFailure, res.Message))
				}
				return out.Success(p, "Posted "+p.ID+"\n"+renderPost(p, u.ID))
			})
		},
	}

	cmd.Flags().StringArrayVarP(&images, "image", "i", nil, "image file name (repeatable)")
	cmd.Flags().StringVarP(&location, "location", "l", "", "location tag")

	return cmd
}

// NewLikeCommand creates the like command.
func NewLikeCommand(rootOpts *RootOptions) *cobra.Command {
	var unlike bool

	cmd := &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle a like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				u, err := requireUser(a, out)
				if err != nil {
					return err
				}

				postID := args[0]
				var ok bool
				if unlike {
					ok = a.Posts.UnlikePost(postID, u.ID)
				} else {
					ok = a.Posts.LikePost(postID, u.ID)
				}
				if !ok {
					return out.Fail(NewExitError(ExitFailure, fmt.Sprintf("post %s not found", postID)))
				}

				p, _ := findPost(a, postID)
				verb := "Unliked"
				if p.LikedBy(u.ID) {
					verb = "Liked"
				}
				return out.Success(p, fmt.Sprintf("%s %s (%d likes)", verb, p.ID, len(p.Likes)))
			})
		},
	}

	cmd.Flags().BoolVar(&unlike, "unlike", false, "remove the like instead of toggling")

	return cmd
}

// NewCommentCommand creates the comment command.
func NewCommentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				u, err := requireUser(a, out)
				if err != nil {
					return err
				}

				cm, ok := a.Posts.AddComment(ctx, args[0], strings.Join(args[1:], " "), u.ID)
				if !ok {
					return out.Fail(NewExitError(ExitFailure, fmt.Sprintf("post %s not found", args[0])))
				}
				return out.Success(cm, "Commented on "+cm.PostID+": "+cm.Content)
			})
		},
	}
}

func findPost(a *app.App, id string) (models.Post, bool) {
	for _, p := range a.Posts.State().Posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}
