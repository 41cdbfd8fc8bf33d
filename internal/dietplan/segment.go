package dietplan

import (
	"regexp"
	"strings"
)

var dayMarker = regexp.MustCompile(`Day (\d+):`)

// Segment splits text into ordered day sections at "Day N:" markers.
//
// Each section starts at its marker and ends where the next boundary marker
// starts, or at the end of text. Under PolicyFaithful only even-indexed markers
// are boundaries. Text before the first marker is dropped.
func Segment(text string, policy Policy) []DaySection {
	matches := dayMarker.FindAllStringSubmatchIndex(text, -1)

	step := 1
	if policy == PolicyFaithful {
		step = 2
	}

	days := make([]DaySection, 0, (len(matches)+step-1)/step)
	for i := 0; i < len(matches); i += step {
		m := matches[i]

		end := len(text)
		if next := i + step; next < len(matches) {
			end = matches[next][0]
		}

		days = append(days, DaySection{
			Day:  text[m[2]:m[3]],
			Diet: strings.TrimSpace(text[m[0]:end]),
		})
	}

	return days
}
