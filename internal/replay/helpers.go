package replay

import (
	"fmt"
	"strings"
)

// printContent prints verbose payload content with timeline indentation.
func (r *Replayer) printContent(content string) {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(r.output, "       │  %s\n", line)
	}
}

// truncateContent truncates a string for single-line display.
func truncateContent(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
