package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"atsoptimizer/internal/common"
	"atsoptimizer/internal/optimizer"
	"atsoptimizer/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Match a resume against the keywords of a job description and compute an
ATS score with a per-component breakdown.

Keywords come from --keywords (YAML or JSON) when given; otherwise they are
extracted from the job description by the AI model. The job description may
be plain text or HTML.

The report includes:
- Overall score and the weight and contribution of every component
- Matched keywords with the matching tier that found them
- Missing keywords counted by importance, and the top quick wins`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

var (
	analyzeConfig   common.CommandConfig
	analyzeKeywords string
	analyzeVersion  string
	analyzeUser     string
)

func init() {
	analyzeCmd.PreRunE = addOutputFlags(analyzeCmd, &analyzeConfig)
	analyzeCmd.Flags().StringVarP(&analyzeKeywords, "keywords", "k", "", "YAML or JSON keyword file (skips AI extraction)")
	analyzeCmd.Flags().StringVar(&analyzeVersion, "version", "", "Score version: v1, v2 or v2.1 (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "User id stored with the session")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	var keywords []types.ExtractedKeyword
	if analyzeKeywords != "" {
		var err error
		keywords, err = common.NewFileProcessor(logger, cfg.App.MaxFileSize).ReadKeywords(analyzeKeywords)
		if err != nil {
			return err
		}
	}

	svc, err := buildServices(cmd.Context(), cfg, logger, buildOptions{withAI: len(keywords) == 0})
	if err != nil {
		return err
	}
	defer svc.Close()

	createInput := func(contents []string) (optimizer.AnalysisRequest, error) {
		if len(contents) != 2 {
			return optimizer.AnalysisRequest{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return optimizer.AnalysisRequest{
			UserID:         analyzeUser,
			ResumeText:     contents[0],
			JobDescription: contents[1],
			Keywords:       keywords,
			Version:        analyzeVersion,
		}, nil
	}

	logDetails := func(req optimizer.AnalysisRequest, cc common.CommandConfig) {
		logger.Info("Starting resume analysis",
			"resume_chars", len(req.ResumeText),
			"job_chars", len(req.JobDescription),
			"keywords", len(req.Keywords),
			"output_format", cc.OutputFormat)
	}

	err = common.RunCommand(cmd.Context(), logger, analyzeConfig, args, createInput,
		func(ctx context.Context, req optimizer.AnalysisRequest) (*optimizer.AnalysisResult, error) {
			return svc.optimizer.Analyze(ctx, req)
		},
		logDetails)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Resume analysis completed successfully")
	return nil
}
