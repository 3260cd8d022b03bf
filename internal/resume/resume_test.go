package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsoptimizer/internal/matching"
	"atsoptimizer/internal/types"
)

const sampleResume = `Jane Doe
jane.doe@example.com | (555) 123-4567

PROFESSIONAL SUMMARY
Backend engineer with eight years building distributed Go services and data pipelines for fintech products.

## Experience
Acme Corp, Senior Engineer, Jan 2020 - Present
- Led migration of 40 services to Kubernetes, cutting deploy time by 60%
- Built a Go ingestion pipeline processing 2M events per day
- Responsible for on-call rotation
- Worked on internal tooling

Education:
B.S. Computer Science, State University, Summer '14

Technical Skills
Languages: Go, Python, SQL
Tools: Docker, Kubernetes, Terraform
`

func TestSplit(t *testing.T) {
	sections := Split(sampleResume)

	names := make([]types.SectionName, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []types.SectionName{
		types.SectionContact, types.SectionSummary, types.SectionExperience,
		types.SectionEducation, types.SectionSkills,
	}, names)
	assert.Contains(t, sections[0].Text(), "jane.doe@example.com")
}

func TestSectionTexts(t *testing.T) {
	texts := SectionTexts(sampleResume)
	assert.Contains(t, texts.Summary, "Backend engineer")
	assert.Contains(t, texts.Experience, "Led migration")
	assert.Contains(t, texts.Skills, "Terraform")
	assert.Contains(t, texts.Education, "Computer Science")

	objectiveOnly := SectionTexts("Objective\nTo join a great team as a backend engineer.\n")
	assert.Equal(t, "To join a great team as a backend engineer.", objectiveOnly.Summary)
}

func TestExtract(t *testing.T) {
	analysis, err := matching.Match([]types.ExtractedKeyword{
		{Keyword: "Go", Importance: types.ImportanceHigh},
		{Keyword: "Kubernetes", Importance: types.ImportanceMedium},
	}, sampleResume)
	require.NoError(t, err)

	signals := Extract(sampleResume, analysis)

	skills, ok := signals.Sections.Get(types.SectionSkills)
	require.True(t, ok)
	assert.Equal(t, 6, skills.ItemCount)

	experience, ok := signals.Sections.Get(types.SectionExperience)
	require.True(t, ok)
	assert.Equal(t, 4, experience.ItemCount)

	assert.True(t, signals.Format.HasEmail)
	assert.True(t, signals.Format.HasPhone)
	assert.False(t, signals.Format.HasObjectiveSection)
	// Jan 2020 and Present
	assert.Equal(t, 2, signals.Format.ParseableDates)
	assert.Equal(t, 1, signals.Format.UnparseableDates)

	assert.Equal(t, 4, signals.Content.BulletCount)
	assert.Equal(t, 2, signals.Content.QuantifiedBullets)
	assert.Equal(t, 2, signals.Content.StrongVerbBullets)
	assert.Equal(t, 2, signals.Content.WeakVerbBullets)
	// Go x3, Kubernetes x2
	assert.Equal(t, 5, signals.Content.KeywordOccurrences)
	assert.Positive(t, signals.Content.WordCount)
}

func TestParseMonthYear(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Jan 2020", true},
		{"january 2020", true},
		{"Sept. 2021", true},
		{"Mayday 2020", false},
		{"Marketing 2020", false},
		{"Mayor 2021", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMonthYear(tt.in))
		})
	}
}

func TestCountDates(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		wantParseable   int
		wantUnparseable int
	}{
		{"month names", "Jan 2020, March 2021, Sept. 2022", 3, 0},
		{"numeric", "Started 01/2020", 1, 0},
		{"year range", "Analyst, 2018 - 2020", 2, 0},
		{"month to present", "Engineer, Jan 2020 – Present", 2, 0},
		{"words that start like months", "Marketing 2020 budget; Mayor 2021 campaign", 0, 0},
		{"bare numbers", "Served 2000 customers at present", 0, 0},
		{"season range", "Spring 2019 - Fall 2020", 0, 2},
		{"short year", "Graduated '14", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseable, unparseable := countDates(tt.text)
			assert.Equal(t, tt.wantParseable, parseable)
			assert.Equal(t, tt.wantUnparseable, unparseable)
		})
	}
}

func TestVerbStrength(t *testing.T) {
	assert.Equal(t, 1, verbStrength("Delivered a new billing system"))
	assert.Equal(t, -1, verbStrength("Helped the team ship features"))
	assert.Equal(t, 0, verbStrength("Team player"))
}
