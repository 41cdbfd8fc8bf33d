package dietplan

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, div, br, li, h1, h2, h3, h4, h5, h6, tr, ul, ol, table, section, article"

var (
	fenceStart  = regexp.MustCompile("(?is)^\\s*```[a-z]*[ \\t]*\\n?")
	fenceEnd    = regexp.MustCompile("(?s)\\n?[ \\t]*```\\s*$")
	blankBursts = regexp.MustCompile(`\n{3,}`)
)

// Normalize prepares raw completion text for segmentation. It removes a BOM and
// surrounding code fences, and converts an HTML document (text starting with a
// tag that contains block elements) to one line per block with list items
// rendered as "- " food lines. Any other text is only trimmed.
func Normalize(text string) string {
	s := strings.TrimPrefix(strings.TrimSpace(text), "\uFEFF")

	if strings.HasPrefix(s, "```") {
		s = fenceStart.ReplaceAllString(s, "")
		s = fenceEnd.ReplaceAllString(s, "")
	}

	if strings.HasPrefix(s, "<") {
		if plain, ok := htmlToText(s); ok {
			s = plain
		}
	}

	return strings.TrimSpace(s)
}

func htmlToText(markup string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}
	if doc.Find(blockSelector).Length() == 0 {
		return "", false
	}

	// Remove noise before flattening
	doc.Find("script, style, head").Remove()

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n- ")
	})
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr, ul, ol, section, article").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text := blankBursts.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return text, true
}
