package posts

import "regexp"

var hashtagPattern = regexp.MustCompile(`#\w+`)

// ExtractHashtags returns the #-prefixed words of caption without the '#',
// case preserved, each once in order of first appearance.
func ExtractHashtags(caption string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, m := range hashtagPattern.FindAllString(caption, -1) {
		tag := m[1:]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
