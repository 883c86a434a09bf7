package cli

import (
	"fmt"
	"strings"

	"snapgram/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func userLine(u models.User) string {
	line := fmt.Sprintf("@%s (%s)", u.Username, u.DisplayName)
	if u.Verified {
		line += " ✓"
	}
	return line
}

func renderPost(p models.Post, viewer string) string {
	var b strings.Builder

	author := p.UserID
	if p.User != nil {
		author = "@" + p.User.Username
	}
	fmt.Fprintf(&b, "[%s] %s  %s", p.ID, author, p.CreatedAt.UTC().Format(timeLayout))
	if p.Location != "" {
		fmt.Fprintf(&b, "  📍 %s", p.Location)
	}
	b.WriteString("\n  " + p.Caption)

	heart := "♡"
	if viewer != "" && p.LikedBy(viewer) {
		heart = "♥"
	}
	fmt.Fprintf(&b, "\n  %s %d  💬 %d", heart, len(p.Likes), len(p.Comments))
	if n := len(p.Images); n > 1 {
		fmt.Fprintf(&b, "  🖼 %d", n)
	}

	for _, c := range p.Comments {
		name := c.UserID
		if c.User != nil {
			name = c.User.Username
		}
		fmt.Fprintf(&b, "\n    %s: %s", name, c.Content)
	}
	return b.String()
}

func renderPosts(posts []models.Post, viewer string) string {
	if len(posts) == 0 {
		return "No posts"
	}
	parts := make([]string, len(posts))
	for i, p := range posts {
		parts[i] = renderPost(p, viewer)
	}
	return strings.Join(parts, "\n\n")
}
