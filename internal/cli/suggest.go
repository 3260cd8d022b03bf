package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"atsoptimizer/internal/common"
	"atsoptimizer/internal/errors"
	"atsoptimizer/internal/optimizer"
	"atsoptimizer/internal/resume"
	"atsoptimizer/internal/suggestions"
	"atsoptimizer/internal/types"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [resume-file] [job-description-file]",
	Short: "Generate AI rewrites for the summary, skills and experience",
	Long: `Generate ATS-oriented suggestions for every resume section, or regenerate a
single section with --section.

The three sections are generated concurrently. When one of them fails the
others are still printed and the failed sections are reported; with
--accept-partial the successful sections are also stored in the session.

Writing preferences (tone, verbosity, emphasis, industry, experience level,
job type and modification level) are read from --prefs, a YAML or JSON file:

  preferences:
    tone: professional
    verbosity: concise
    emphasis: achievements
    industry: tech
    experienceLevel: senior
    jobType: fulltime
    modificationLevel: moderate`,
	Args: cobra.ExactArgs(2),
	RunE: runSuggest,
}

var (
	suggestConfig        common.CommandConfig
	suggestKeywords      string
	suggestPrefs         string
	suggestSection       string
	suggestCurrent       string
	suggestSession       string
	suggestUser          string
	suggestAcceptPartial bool
)

func init() {
	suggestCmd.PreRunE = addOutputFlags(suggestCmd, &suggestConfig)
	suggestCmd.Flags().StringVarP(&suggestKeywords, "keywords", "k", "", "YAML or JSON keyword file (skips AI extraction)")
	suggestCmd.Flags().StringVar(&suggestPrefs, "prefs", "", "YAML or JSON preferences file")
	suggestCmd.Flags().StringVar(&suggestSection, "section", "", "Regenerate only this section: summary, skills or experience")
	suggestCmd.Flags().StringVar(&suggestCurrent, "current", "", "File with the current suggestion to improve on (with --section)")
	suggestCmd.Flags().StringVar(&suggestSession, "session", "", "Existing session id to update")
	suggestCmd.Flags().StringVar(&suggestUser, "user", "", "User id for stored user context")
	suggestCmd.Flags().BoolVar(&suggestAcceptPartial, "accept-partial", false, "Store successful sections when another section fails")

	_ = suggestCmd.RegisterFlagCompletionFunc("section", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(types.SuggestionSections))
		for i, s := range types.SuggestionSections {
			out[i] = string(s)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	files := common.NewFileProcessor(logger, cfg.App.MaxFileSize)

	var section types.SuggestionSection
	if suggestSection != "" {
		var err error
		if section, err = types.ParseSuggestionSection(suggestSection); err != nil {
			return errors.NewValidationError(errors.ErrCodeValidation, "invalid --section", err)
		}
	} else if suggestCurrent != "" {
		return errors.NewValidationError(errors.ErrCodeValidation, "--current requires --section", nil)
	}

	req := types.SuggestionRequest{SessionID: suggestSession, UserID: suggestUser}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if cmd.Flags().Changed("accept-partial") {
		req.AcceptPartial = &suggestAcceptPartial
	}
	if suggestKeywords != "" {
		keywords, err := files.ReadKeywords(suggestKeywords)
		if err != nil {
			return err
		}
		req.Keywords = keywords
	}
	if suggestPrefs != "" {
		profile, err := files.ReadProfile(suggestPrefs)
		if err != nil {
			return err
		}
		req.Preferences = profile.Preferences
	}
	var current string
	if suggestCurrent != "" {
		contents, err := files.ValidateAndReadFiles(suggestCurrent)
		if err != nil {
			return err
		}
		current = contents[0]
	}

	svc, err := buildServices(cmd.Context(), cfg, logger, buildOptions{withAI: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	createInput := func(contents []string) (types.SuggestionRequest, error) {
		if len(contents) != 2 {
			return types.SuggestionRequest{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		r := req
		r.Sections = resume.SectionTexts(contents[0])
		r.JobDescription = contents[1]
		return r, nil
	}

	logDetails := func(r types.SuggestionRequest, cc common.CommandConfig) {
		logger.Info("Starting suggestion generation",
			"session_id", r.SessionID,
			"section", suggestSection,
			"keywords", len(r.Keywords),
			"preferences", r.Preferences != nil,
			"output_format", cc.OutputFormat)
	}

	if section != "" {
		err = common.RunCommand(cmd.Context(), logger, suggestConfig, args, createInput,
			func(ctx context.Context, r types.SuggestionRequest) (any, error) {
				return svc.optimizer.Regenerate(ctx, r, section, current)
			},
			logDetails)
		if err != nil {
			return fmt.Errorf("failed to regenerate %s: %w", section, err)
		}
		logger.Info("Section regenerated successfully", "section", string(section))
		return nil
	}

	err = common.RunCommand(cmd.Context(), logger, suggestConfig, args, createInput,
		func(ctx context.Context, r types.SuggestionRequest) (any, error) {
			return svc.optimizer.Suggest(ctx, r)
		},
		logDetails)
	if err != nil {
		reportPartial(err, req.SessionID, suggestConfig, logger)
		return fmt.Errorf("failed to generate suggestions: %w", err)
	}
	logger.Info("Suggestions generated successfully")
	return nil
}

// reportPartial logs each failed section of a partially successful run and
// prints the sections that did succeed.
func reportPartial(err error, sessionID string, cc common.CommandConfig, logger *errors.Logger) {
	var genErr *suggestions.GenerationError
	if !stderrors.As(err, &genErr) {
		return
	}
	for _, f := range genErr.Failures {
		logger.LogError(f.Err, "Section generation failed", "section", string(f.Section), "code", f.Code)
	}
	if genErr.Partial == nil {
		return
	}

	partial := &optimizer.SuggestResult{Suggestions: genErr.Partial}
	if id, err := uuid.Parse(sessionID); err == nil {
		partial.SessionID = id
	}
	if err := common.NewOutputHandler(logger).HandleOutput(partial, cc); err != nil {
		logger.LogError(err, "Failed to write partial suggestions")
	}
}
