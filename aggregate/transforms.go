package aggregate

import "strings"

// passthrough concatenates section contents verbatim, in order, separated by
// a blank line.
func passthrough(sections []Section) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = s.Content
	}
	return strings.Join(parts, "\n\n")
}

// extractCode isolates fenced code blocks from each section's content. A
// section without any fence contributes its content unchanged, so a bare
// snippet upstream is not lost.
func extractCode(sections []Section) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = FencedBlocks(s.Content)
	}
	return strings.Join(parts, "\n\n")
}

// mergeAsContext renders each section as a labeled block (heading = step id)
// and concatenates them in declared order. This is the transform used to
// build rich context for a downstream synthesis step.
func mergeAsContext(sections []Section) string {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## ")
		b.WriteString(s.StepID)
		b.WriteString("\n\n")
		b.WriteString(s.Content)
	}
	return b.String()
}

// FencedBlocks returns the bodies of all triple-backtick fenced code blocks
// in content, joined by a blank line. The opening fence's info string (e.g.
// "go") is dropped. Content without a complete fence is returned unchanged.
func FencedBlocks(content string) string {
	var (
		blocks  []string
		current []string
		inFence bool
		found   bool
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = current[:0]
				found = true
			}
			inFence = !inFence
			continue
		}
		if inFence {
			current = append(current, line)
		}
	}

	if !found {
		return content
	}
	return strings.Join(blocks, "\n\n")
}
