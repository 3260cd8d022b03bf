package ai

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"

	"atsoptimizer/internal/config"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// OutputError reports a model response that does not match the expected
// schema.
type OutputError struct {
	Operation config.Operation
	Fields    []string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s response does not match schema: %s", e.Operation, strings.Join(e.Fields, "; "))
}

var outputSchemas = sync.OnceValues(func() (map[config.Operation]*gojsonschema.Schema, error) {
	out := make(map[config.Operation]*gojsonschema.Schema, len(config.Operations))
	for _, op := range config.Operations {
		raw, err := schemaFS.ReadFile("schemas/" + string(op) + ".json")
		if err != nil {
			return nil, fmt.Errorf("missing output schema for %s: %w", op, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid output schema for %s: %w", op, err)
		}
		out[op] = schema
	}
	return out, nil
})

// validateOutput checks a raw model response against the JSON schema of op.
func validateOutput(op config.Operation, body string) error {
	schemas, err := outputSchemas()
	if err != nil {
		return err
	}
	schema, ok := schemas[op]
	if !ok {
		return fmt.Errorf("no output schema for operation %s", op)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return &OutputError{Operation: op, Fields: []string{"(root): " + err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	fields := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		fields = append(fields, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return &OutputError{Operation: op, Fields: fields}
}

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

// responseSchema is the structured output schema sent to the model for op.
func responseSchema(op config.Operation) *genai.Schema {
	switch op {
	case config.OperationSummary:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"original":      {Type: genai.TypeString},
				"suggested":     {Type: genai.TypeString},
				"keywordsAdded": stringArray(),
				"rationale":     {Type: genai.TypeString},
			},
			Required: []string{"original", "suggested", "keywordsAdded", "rationale"},
		}
	case config.OperationSkills:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"existingSkills": stringArray(),
				"skillsToAdd": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"skill":  {Type: genai.TypeString},
							"reason": {Type: genai.TypeString},
						},
						Required: []string{"skill", "reason"},
					},
				},
				"skillsToRemove": stringArray(),
				"grouped": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"category": {Type: genai.TypeString},
							"skills":   stringArray(),
						},
						Required: []string{"category", "skills"},
					},
				},
				"rationale": {Type: genai.TypeString},
			},
			Required: []string{"existingSkills", "skillsToAdd", "skillsToRemove", "grouped", "rationale"},
		}
	case config.OperationExperience:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"entries": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"role":    {Type: genai.TypeString},
							"company": {Type: genai.TypeString},
							"bullets": {
								Type: genai.TypeArray,
								Items: &genai.Schema{
									Type: genai.TypeObject,
									Properties: map[string]*genai.Schema{
										"original":      {Type: genai.TypeString},
										"suggested":     {Type: genai.TypeString},
										"keywordsAdded": stringArray(),
										"metricAdded":   {Type: genai.TypeBoolean},
									},
									Required: []string{"original", "suggested", "keywordsAdded", "metricAdded"},
								},
							},
						},
						Required: []string{"role", "company", "bullets"},
					},
				},
				"rationale": {Type: genai.TypeString},
			},
			Required: []string{"entries", "rationale"},
		}
	case config.OperationKeywords:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"keywords": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"keyword": {Type: genai.TypeString},
							"category": {
								Type: genai.TypeString,
								Enum: []string{"technologies", "tools", "soft_skills", "certifications",
									"qualifications", "experience", "methodologies", "domain_knowledge"},
							},
							"importance": {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
						},
						Required: []string{"keyword", "category", "importance"},
					},
				},
			},
			Required: []string{"keywords"},
		}
	}
	return nil
}
