package analysis

import (
	"strings"

	"docanalyze/internal/logger"
	"docanalyze/internal/models"
)

// Outcome is the result of parsing a model reply. Parse never fails; when no
// section marker matched at all, Fallback is true and the raw text is kept
// as the detailed analysis.
type Outcome struct {
	Sections models.Sections
	Fallback bool
}

const (
	sectionSummary         = "summary"
	sectionKeyPoints       = "keyPoints"
	sectionDetailed        = "detailedAnalysis"
	sectionRecommendations = "recommendations"
	sectionComparison      = "documentComparison"
)

// Marker keywords in fixed priority order. A block whose first line matches
// several keywords is assigned to the first one checked; this ordering is
// the only contract callers may rely on.
var sectionMarkers = []struct {
	keyword string
	section string
}{
	{"summary", sectionSummary},
	{"key points", sectionKeyPoints},
	{"detailed analysis", sectionDetailed},
	{"recommendations", sectionRecommendations},
	{"comparison", sectionComparison},
}

// Parse segments the raw model reply into named sections by scanning
// blank-line separated blocks for heading keywords. It is a best-effort text
// segmenter, not a grammar: callers must tolerate partially filled results.
func Parse(raw string) Outcome {
	out := Outcome{Sections: models.EmptySections()}
	if strings.TrimSpace(raw) == "" {
		return out
	}

	content := make(map[string][]string)
	current := ""
	for _, block := range splitBlocks(raw) {
		lines := strings.SplitN(block, "\n", 2)
		first := strings.ToLower(lines[0])

		matched := ""
		for _, m := range sectionMarkers {
			if strings.Contains(first, m.keyword) {
				matched = m.section
				break
			}
		}
		if matched != "" {
			current = matched
			if len(lines) == 2 {
				if rest := strings.TrimSpace(lines[1]); rest != "" {
					content[current] = append(content[current], rest)
				}
			}
			continue
		}
		if current != "" {
			content[current] = append(content[current], block)
		}
		// Markerless text before the first heading only matters when no
		// heading ever shows up; the fallback below covers that.
	}

	if len(content) == 0 {
		out.Fallback = true
		out.Sections.DetailedAnalysis = strings.TrimSpace(raw)
		return out
	}

	join := func(section string) string {
		return strings.TrimSpace(strings.Join(content[section], "\n\n"))
	}
	out.Sections.Summary = join(sectionSummary)
	out.Sections.KeyPoints = bulletLines(join(sectionKeyPoints))
	out.Sections.DetailedAnalysis = join(sectionDetailed)
	out.Sections.Recommendations = bulletLines(join(sectionRecommendations))
	out.Sections.DocumentComparison = join(sectionComparison)

	if out.Sections.Summary == "" || len(out.Sections.KeyPoints) == 0 ||
		out.Sections.DetailedAnalysis == "" || len(out.Sections.Recommendations) == 0 {
		logger.Warn("model reply missing one or more mandatory sections")
	}
	return out
}

func splitBlocks(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var blocks []string
	var current []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = current[:0]
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	return blocks
}

// bulletLines turns section content into a list: one entry per non-empty
// line, leading bullet markers stripped, unbulleted lines kept verbatim.
func bulletLines(content string) []string {
	items := []string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "•"):
			line = strings.TrimSpace(line[len("•"):])
		case strings.HasPrefix(line, "-"):
			line = strings.TrimSpace(line[1:])
		}
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
