package llm

import "strings"

// parseLines extracts up to max non-empty, deduplicated lines from raw model
// output, stripping leading list markers the model tends to add despite
// instructions.
func parseLines(text string, max int) []string {
	var out []string
	seen := map[string]bool{}
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		ln = strings.TrimLeft(ln, "0123456789.-) ")
		ln = strings.TrimSpace(ln)
		if ln == "" || seen[ln] {
			continue
		}
		seen[ln] = true
		out = append(out, ln)
		if len(out) >= max {
			break
		}
	}
	return out
}
