package cli

import (
	"context"

	"github.com/spf13/cobra"

	"atsoptimizer/internal/common"
	"atsoptimizer/internal/config"
	"atsoptimizer/internal/errors"
)

type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "atsoptimizer",
	Short: "Score resumes against job descriptions and suggest ATS-friendly rewrites",
	Long: `atsoptimizer matches a resume against the keywords of a job description,
computes a versioned ATS score with a per-component breakdown, ranks the
missing keywords and asks an AI model for section-by-section rewrites of the
summary, skills and experience.

It runs as a one-shot CLI or as an HTTP service (see "serve").`,
	SilenceUsage: true,
}

// Execute runs the root command with cfg and logger available to every
// subcommand through the context.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

// addOutputFlags registers -o and --format with completion, and returns a
// PreRunE that fills in the default format and validates it.
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) func(*cobra.Command, []string) error {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, ok := cmd.Context().Value(configKey).(*config.Config)
		if !ok {
			return common.GetSupportedFormats(nil), cobra.ShellCompDirectiveNoFileComp
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})

	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if cc.OutputFormat == "" {
			cc.OutputFormat = cfg.App.DefaultFormat
		}
		cc.MaxFileSize = cfg.App.MaxFileSize
		cc.Out = cmd.OutOrStdout()
		return common.ValidateOutputFormat(cc.OutputFormat, cfg.App.SupportedFormats)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
