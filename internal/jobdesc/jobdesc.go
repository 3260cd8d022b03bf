// Package jobdesc cleans job descriptions before they are matched or
// prompted on. Postings pasted from job boards often arrive as HTML.
package jobdesc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlTag = regexp.MustCompile(`(?i)<\s*(html|body|div|p|ul|ol|li|br|h[1-6]|span|strong|em|b|section|article|table)\b[^>]*>`)

// postingSelectors locate the description body on common job boards.
var postingSelectors = []string{
	".job-description",
	"#job-description",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
}

// LooksLikeHTML reports whether s contains markup worth stripping.
func LooksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// Normalize returns s as plain text with one item per line. Plain text is
// only whitespace-cleaned.
func Normalize(s string) (string, error) {
	if !LooksLikeHTML(s) {
		return cleanWhitespace(s), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("failed to parse job description HTML: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer, header, .apply-button, .cookie-banner").Remove()

	// Keep list structure and block boundaries visible in the text.
	doc.Find("li").Each(func(_ int, sel *goquery.Selection) {
		sel.PrependHtml("- ")
		sel.AppendHtml("\n")
	})
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, h1, h2, h3, h4, h5, h6, tr, section").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	content := doc.Find("body")
	for _, selector := range postingSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}

	return cleanWhitespace(content.Text()), nil
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
