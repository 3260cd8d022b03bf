package matching

import (
	"slices"
	"strings"
)

// synonymGroups are terms an ATS reviewer treats as interchangeable. Terms
// are lowercase.
var synonymGroups = [][]string{
	{"go", "golang"},
	{"javascript", "js", "ecmascript"},
	{"typescript", "ts"},
	{"kubernetes", "k8s"},
	{"postgresql", "postgres", "psql"},
	{"mongodb", "mongo"},
	{"amazon web services", "aws"},
	{"google cloud platform", "google cloud", "gcp"},
	{"microsoft azure", "azure"},
	{"machine learning", "ml"},
	{"artificial intelligence", "ai"},
	{"natural language processing", "nlp"},
	{"continuous integration", "ci/cd", "ci", "continuous delivery", "continuous deployment"},
	{"infrastructure as code", "iac", "terraform"},
	{"react", "react.js", "reactjs"},
	{"vue", "vue.js", "vuejs"},
	{"node.js", "nodejs", "node"},
	{"rest api", "restful api", "restful services", "rest"},
	{"microservices", "microservice architecture", "service-oriented architecture", "soa"},
	{"user experience", "ux"},
	{"user interface", "ui"},
	{"quality assurance", "qa", "software testing"},
	{"project management", "managed projects", "pmp"},
	{"agile", "scrum", "kanban"},
	{"leadership", "led", "team lead", "mentored", "managed a team"},
	{"communication", "communicated", "presented", "presentations"},
	{"collaboration", "collaborated", "cross-functional", "teamwork"},
	{"problem solving", "problem-solving", "troubleshooting", "debugged"},
	{"frontend", "front end", "front-end", "ui developer"},
	{"backend", "back end", "back-end", "server-side"},
	{"devops", "site reliability engineering", "sre"},
	{"bachelor's degree", "bachelor", "bachelors", "b.s.", "bsc", "b.sc"},
	{"master's degree", "master", "masters", "m.s.", "msc", "m.sc"},
	{"computer science", "cs"},
	{"sql", "mysql", "structured query language"},
	{"c#", "csharp", ".net"},
	{"c++", "cpp"},
}

// surfaceForms are synonyms that are also everyday words. They only count as
// a semantic match when the resume spells them this way: "Go" but not "go
// live".
var surfaceForms = map[string]string{
	"go":     "Go",
	"ai":     "AI",
	"ui":     "UI",
	"ux":     "UX",
	"ci":     "CI",
	"cs":     "CS",
	"ts":     "TS",
	"js":     "JS",
	"ml":     "ML",
	"rest":   "REST",
	"node":   "Node",
	"react":  "React",
	"master": "Master",
}

// Vocabulary maps each known term to the other members of its group.
type Vocabulary struct {
	synonyms map[string][]string
}

// NewVocabulary builds a vocabulary from the built-in groups plus extra,
// which maps a term to additional synonyms.
func NewVocabulary(extra map[string][]string) *Vocabulary {
	v := &Vocabulary{synonyms: make(map[string][]string)}
	for _, group := range synonymGroups {
		v.addGroup(group)
	}
	for term, aliases := range extra {
		v.addGroup(append([]string{term}, aliases...))
	}
	return v
}

func (v *Vocabulary) addGroup(group []string) {
	terms := make([]string, 0, len(group))
	for _, t := range group {
		if t = normalize(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	for _, term := range terms {
		for _, other := range terms {
			if other != term && !slices.Contains(v.synonyms[term], other) {
				v.synonyms[term] = append(v.synonyms[term], other)
			}
		}
	}
}

// Synonyms returns a copy of the synonyms registered for term.
func (v *Vocabulary) Synonyms(term string) []string {
	term = normalize(strings.TrimSpace(term))
	if term == "" {
		return []string{}
	}
	if syns, ok := v.synonyms[term]; ok {
		out := make([]string, 0, len(syns))
		out = append(out, syns...)
		return out
	}
	return []string{}
}
