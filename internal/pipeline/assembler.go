package pipeline

import (
	"sort"
	"strings"
)

// Assemble deterministically concatenates the base prompt and the surviving
// fragments into the final generation prompt plus an ordered list of input
// images. Fragments are ordered by descending priority; ties keep stage
// order. The same fragments always produce the same prompt.
func Assemble(basePrompt string, fragments []Fragment) (string, [][]byte) {
	ordered := make([]Fragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	parts := make([]string, 0, len(ordered)+1)
	if base := strings.TrimSpace(basePrompt); base != "" {
		parts = append(parts, base)
	}

	var images [][]byte
	for _, frag := range ordered {
		if text := strings.TrimSpace(frag.Text); text != "" {
			parts = append(parts, text)
		}
		images = append(images, frag.Images...)
	}

	return strings.Join(parts, "\n\n"), images
}
