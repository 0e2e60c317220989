// Package analysis turns the free-form text produced by the language model
// into the fixed six-section structure the API exposes, and owns the prompt
// used to request that structure in the first place.
package analysis

import "strings"

// SectionLabels is the fixed section order of every parsed analysis.
// ParseSections always returns exactly one string per label.
var SectionLabels = []string{
	"OVERALL VERDICT",
	"SUMMARY",
	"KEY RISKS",
	"POSITIVE HIGHLIGHTS",
	"RECOMMENDATION",
	"MARKETING TRAPS",
}

// ParseSections scans text line by line and slots content under the six known
// headers. A line whose trimmed, uppercased form starts with a label opens
// that label's section; the header line itself is consumed. Lines before the
// first recognized header are discarded. Missing labels yield empty strings,
// and a repeated label overwrites its earlier content (single-slot
// accumulation, last write wins).
func ParseSections(text string) []string {
	sections := make(map[string]string, len(SectionLabels))

	var current string
	var content []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(content, "\n"))
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if label, ok := matchHeader(line); ok {
			flush()
			current = label
			content = content[:0]
			continue
		}
		if current != "" {
			content = append(content, line)
		}
	}
	flush()

	out := make([]string, len(SectionLabels))
	for i, label := range SectionLabels {
		out[i] = sections[label]
	}
	return out
}

// matchHeader reports whether the line opens one of the known sections.
// Matching is case-insensitive and prefix-based, so "SUMMARY:" and
// "Summary (3-4 lines)" both open SUMMARY.
func matchHeader(line string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(line))
	for _, label := range SectionLabels {
		if strings.HasPrefix(upper, label) {
			return label, true
		}
	}
	return "", false
}
