package wizard

import (
	"regexp"
	"strings"
)

const (
	imageMarker = "**[Image Prompt for Nano Banana]**"

	NotFoundText = "(프롬프트 없음 - 출력 형식 확인 필요)"
	StyleKeyword = "Pixar"
	StyleSuffix  = ", 3D Pixar animation style, high quality render"

	// MaxSections is the number of section slots on the final step.
	MaxSections = 4
)

type Section int

const (
	SectionIntro Section = iota
	SectionWall
	SectionEpiphany
	SectionOffer
)

func (s Section) Slot() Slot {
	return SectionSlots()[s]
}

func (s Section) String() string {
	switch s {
	case SectionIntro:
		return "intro"
	case SectionWall:
		return "wall"
	case SectionEpiphany:
		return "epiphany"
	case SectionOffer:
		return "offer"
	default:
		return "unknown"
	}
}

// SectionPrompt is one image description scraped from a final script.
// Found is false for the not-found placeholders. A Found entry may still
// have empty Text when the marker was followed by nothing.
type SectionPrompt struct {
	Section Section
	Text    string
	Found   bool
}

// Patterns are tried in order; the first with any match is used alone.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\*\*\[Image Prompt for Nano Banana\]\*\*:\s*(.*?)(?:\n|$)`),
	regexp.MustCompile(`(?i)(?:Image Prompt for Nano Banana|Image Prompt)\s*[:\-]\s*(.*?)(?:\n|$)`),
	regexp.MustCompile(`(?i)\[Image Prompt.*?\]\s*[:\-]?\s*(.*?)(?:\n|$)`),
}

// Extract returns at most MaxSections prompts in marker order, or exactly
// MaxSections not-found placeholders when no pattern matches.
func Extract(text string) []SectionPrompt {
	var matches [][]string
	for _, re := range sectionPatterns {
		matches = re.FindAllStringSubmatch(text, -1)
		if len(matches) > 0 {
			break
		}
	}

	if len(matches) == 0 {
		out := make([]SectionPrompt, MaxSections)
		for i := range out {
			out[i] = SectionPrompt{Section: Section(i), Text: NotFoundText}
		}
		return out
	}

	if len(matches) > MaxSections {
		matches = matches[:MaxSections]
	}
	out := make([]SectionPrompt, 0, len(matches))
	for i, m := range matches {
		desc := strings.TrimSpace(m[1])
		if desc != "" {
			desc = ApplyStyle(desc)
		}
		out = append(out, SectionPrompt{Section: Section(i), Text: desc, Found: true})
	}
	return out
}

// ApplyStyle appends StyleSuffix unless desc already names StyleKeyword.
func ApplyStyle(desc string) string {
	desc = strings.TrimSpace(desc)
	if strings.Contains(desc, StyleKeyword) {
		return desc
	}
	return desc + StyleSuffix
}

// FoundCount counts entries that came from a marker match.
func FoundCount(prompts []SectionPrompt) int {
	n := 0
	for _, p := range prompts {
		if p.Found {
			n++
		}
	}
	return n
}
