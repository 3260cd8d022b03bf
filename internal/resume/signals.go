package resume

import (
	"regexp"
	"strings"
	"time"

	"atsoptimizer/internal/matching"
	"atsoptimizer/internal/types"
)

// Signals bundles everything the score calculator needs besides keywords.
type Signals struct {
	Sections types.SectionSignals
	Format   types.FormatSignals
	Content  types.ContentQualitySignals
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)

	// Groups: 1 month and year, 2 bare year, 3 present or current.
	datePattern = regexp.MustCompile(`(?i)\b(?:((?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{4})|(?:0?[1-9]|1[0-2])/\d{4}|((?:19|20)\d{2})|(present|current))\b`)
	badDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`'\d{2}\b`),
		regexp.MustCompile(`(?i)\b(spring|summer|fall|autumn|winter)\s+\d{2,4}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}\.\d{4}\b`),
	}

	columnGap    = regexp.MustCompile(`\S( {4,}|\t+)\S`)
	quantPattern = regexp.MustCompile(`\d|%|\$`)
)

var bulletPrefixes = []string{"- ", "* ", "• ", "· ", "– ", "▪ ", "○ "}

var strongVerbs = map[string]bool{
	"achieved": true, "architected": true, "automated": true, "built": true, "created": true,
	"delivered": true, "designed": true, "developed": true, "drove": true, "established": true,
	"implemented": true, "improved": true, "increased": true, "launched": true, "led": true,
	"managed": true, "mentored": true, "migrated": true, "optimized": true, "owned": true,
	"reduced": true, "scaled": true, "shipped": true, "spearheaded": true, "streamlined": true,
	"contributed": true, "engineered": true, "negotiated": true, "resolved": true, "transformed": true,
}

var weakOpeners = []string{
	"responsible for", "helped", "assisted", "worked on", "participated", "involved in",
	"duties included", "tasked with",
}

// Extract derives section, format and content-quality signals from resume
// text. analysis supplies the matched keywords whose occurrences count
// toward keyword density.
func Extract(text string, analysis types.KeywordAnalysisResult) Signals {
	sections := Split(text)
	words := len(strings.Fields(text))

	return Signals{
		Sections: sectionSignals(sections),
		Format:   formatSignals(text, sections, words),
		Content:  contentSignals(text, sections, analysis, words),
	}
}

func sectionSignals(sections []Section) types.SectionSignals {
	out := types.SectionSignals{Sections: []types.SectionSignal{}}
	for _, sec := range sections {
		if sec.Name == types.SectionContact {
			continue
		}
		body := sec.Text()
		signal := types.SectionSignal{
			Name:      sec.Name,
			WordCount: len(strings.Fields(body)),
			ItemCount: len(bullets(sec.Lines)),
		}
		if sec.Name == types.SectionSkills {
			signal.ItemCount = len(skillItems(body))
		}
		out.Sections = append(out.Sections, signal)
	}
	return out
}

func formatSignals(text string, sections []Section, words int) types.FormatSignals {
	f := types.FormatSignals{
		HasEmail:  emailPattern.MatchString(text),
		HasPhone:  phonePattern.MatchString(text),
		WordCount: words,
	}
	for _, sec := range sections {
		if sec.Name == types.SectionObjective {
			f.HasObjectiveSection = true
		}
	}

	f.ParseableDates, f.UnparseableDates = countDates(text)

	var gapped, tabular int
	for _, line := range strings.Split(text, "\n") {
		if columnGap.MatchString(line) {
			gapped++
		}
		if strings.Count(line, "|") >= 2 || strings.ContainsAny(line, "┌┐└┘│─") {
			tabular++
		}
	}
	f.MultiColumnLayout = gapped >= 5
	f.HasTablesOrGraphics = tabular >= 2
	return f
}

// countDates counts dates an ATS can parse ("Jan 2020", "01/2020", and a
// bare year or "Present" used as a range endpoint) and date-like tokens it
// cannot ("'19", "Summer 2020", "3/19", "03.2020").
func countDates(text string) (parseable, unparseable int) {
	var bad [][]int
	for _, p := range badDatePatterns {
		spans := p.FindAllStringIndex(text, -1)
		unparseable += len(spans)
		bad = append(bad, spans...)
	}

	for _, m := range datePattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if overlaps(bad, start, end) {
			continue
		}
		switch {
		case m[2] >= 0:
			if parseMonthYear(text[start:end]) {
				parseable++
			} else {
				unparseable++
			}
		case m[4] >= 0, m[6] >= 0:
			if inRange(text, start, end) {
				parseable++
			}
		default:
			parseable++
		}
	}
	return parseable, unparseable
}

func overlaps(spans [][]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// inRange reports whether text[start:end] sits next to a range separator,
// as both ends of "2018 - 2020" and "Jan 2020 to Present" do.
func inRange(text string, start, end int) bool {
	before := strings.ToLower(strings.TrimRight(text[:start], " \t"))
	after := strings.ToLower(strings.TrimLeft(text[end:], " \t"))
	for _, sep := range []string{"-", "–", "—"} {
		if strings.HasSuffix(before, sep) || strings.HasPrefix(after, sep) {
			return true
		}
	}
	return strings.HasSuffix(before, " to") || strings.HasPrefix(after, "to ")
}

// parseMonthYear accepts "Jan 2020", "January 2020" and "Sept. 2020".
func parseMonthYear(s string) bool {
	fields := strings.Fields(strings.ReplaceAll(s, ".", ""))
	if len(fields) != 2 {
		return false
	}
	month := strings.ToLower(fields[0])
	if month == "sept" {
		month = "sep"
	}
	for _, layout := range []string{"January 2006", "Jan 2006"} {
		if _, err := time.Parse(layout, month+" "+fields[1]); err == nil {
			return true
		}
	}
	return false
}

func contentSignals(text string, sections []Section, analysis types.KeywordAnalysisResult, words int) types.ContentQualitySignals {
	c := types.ContentQualitySignals{WordCount: words}

	var lines []string
	for _, sec := range sections {
		if sec.Name == types.SectionExperience || sec.Name == types.SectionProjects {
			lines = append(lines, sec.Lines...)
		}
	}
	if len(lines) == 0 {
		lines = strings.Split(text, "\n")
	}

	for _, b := range bullets(lines) {
		c.BulletCount++
		if quantPattern.MatchString(b) {
			c.QuantifiedBullets++
		}
		switch verbStrength(b) {
		case 1:
			c.StrongVerbBullets++
		case -1:
			c.WeakVerbBullets++
		}
	}

	for _, kw := range analysis.Matched {
		c.KeywordOccurrences += matching.CountOccurrences(text, kw.Keyword)
	}
	return c
}

// bullets returns the text of bullet lines.
func bullets(lines []string) []string {
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range bulletPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				out = append(out, strings.TrimSpace(strings.TrimPrefix(trimmed, prefix)))
				break
			}
		}
	}
	return out
}

// verbStrength is 1 for a strong opening verb, -1 for a weak opener, else 0.
func verbStrength(bullet string) int {
	lower := strings.ToLower(bullet)
	for _, weak := range weakOpeners {
		if strings.HasPrefix(lower, weak) {
			return -1
		}
	}
	first, _, _ := strings.Cut(lower, " ")
	if strongVerbs[strings.Trim(first, ",.;:")] {
		return 1
	}
	return 0
}

func skillItems(body string) []string {
	var out []string
	split := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == '|' || r == '\n' || r == ';' || r == '•'
	})
	for _, item := range split {
		item = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(item), "-*·"))
		if _, rest, ok := strings.Cut(item, ":"); ok {
			item = strings.TrimSpace(rest)
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
