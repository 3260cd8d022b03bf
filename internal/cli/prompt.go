package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"atsoptimizer/internal/common"
	"atsoptimizer/internal/formatters"
	"atsoptimizer/internal/types"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Preview the preference instructions sent to the AI model",
	Long: `Render the block of writing instructions built from optimisation
preferences and user context, exactly as it is added to every suggestion
prompt. Nothing is sent to the model.

Preferences come from --prefs or from the individual flags; a flag wins over
the file. When any preference is given, all seven must be set.`,
	Args: cobra.NoArgs,
	RunE: runPrompt,
}

var (
	promptConfig common.CommandConfig
	promptPrefs  string
	promptUser   string
	promptFlags  types.OptimizationPreferences
	promptGoal   string
	promptTarget []string
)

func init() {
	promptCmd.PreRunE = addOutputFlags(promptCmd, &promptConfig)
	f := promptCmd.Flags()
	f.StringVar(&promptPrefs, "prefs", "", "YAML or JSON preferences file")
	f.StringVar(&promptUser, "user", "", "Look up stored user context for this user id")
	f.StringVar((*string)(&promptFlags.Tone), "tone", "", "professional, casual or technical")
	f.StringVar((*string)(&promptFlags.Verbosity), "verbosity", "", "concise, detailed or comprehensive")
	f.StringVar((*string)(&promptFlags.Emphasis), "emphasis", "", "keywords, skills, impact, achievements or experience")
	f.StringVar((*string)(&promptFlags.Industry), "industry", "", "tech, finance, healthcare, education, marketing, manufacturing, retail, government, consulting or generic")
	f.StringVar((*string)(&promptFlags.ExperienceLevel), "experience-level", "", "entry, mid, senior or executive")
	f.StringVar((*string)(&promptFlags.JobType), "job-type", "", "coop or fulltime")
	f.StringVar((*string)(&promptFlags.ModificationLevel), "modification-level", "", "conservative, moderate or aggressive")
	f.StringVar(&promptGoal, "career-goal", "", "first-job, switching-careers, advancing, promotion or returning")
	f.StringSliceVar(&promptTarget, "target-industry", nil, "Target industry (repeatable)")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	var prefs *types.OptimizationPreferences
	var userCtx *types.UserContext
	if promptPrefs != "" {
		profile, err := common.NewFileProcessor(logger, cfg.App.MaxFileSize).ReadProfile(promptPrefs)
		if err != nil {
			return err
		}
		prefs, userCtx = profile.Preferences, profile.UserContext
	}
	prefs = mergePreferences(prefs, promptFlags)

	if promptGoal != "" || len(promptTarget) > 0 {
		if userCtx == nil {
			userCtx = &types.UserContext{}
		}
		if promptGoal != "" {
			userCtx.CareerGoal = types.CareerGoal(promptGoal)
		}
		if len(promptTarget) > 0 {
			userCtx.TargetIndustries = promptTarget
		}
		if err := types.Validate(userCtx); err != nil {
			return fmt.Errorf("invalid user context: %w", err)
		}
	}

	svc, err := buildServices(cmd.Context(), cfg, logger, buildOptions{})
	if err != nil {
		return err
	}
	defer svc.Close()

	text, err := svc.optimizer.PreviewPrompt(cmd.Context(), prefs, userCtx, promptUser)
	if err != nil {
		return err
	}
	return common.NewOutputHandler(logger).HandleOutput(
		formatters.PromptOutput{Prompt: strings.TrimSpace(text)}, promptConfig)
}

// mergePreferences overlays the non-empty flag values on base.
func mergePreferences(base *types.OptimizationPreferences, flags types.OptimizationPreferences) *types.OptimizationPreferences {
	if flags == (types.OptimizationPreferences{}) {
		return base
	}
	merged := types.OptimizationPreferences{}
	if base != nil {
		merged = *base
	}
	if flags.Tone != "" {
		merged.Tone = flags.Tone
	}
	if flags.Verbosity != "" {
		merged.Verbosity = flags.Verbosity
	}
	if flags.Emphasis != "" {
		merged.Emphasis = flags.Emphasis
	}
	if flags.Industry != "" {
		merged.Industry = flags.Industry
	}
	if flags.ExperienceLevel != "" {
		merged.ExperienceLevel = flags.ExperienceLevel
	}
	if flags.JobType != "" {
		merged.JobType = flags.JobType
	}
	if flags.ModificationLevel != "" {
		merged.ModificationLevel = flags.ModificationLevel
	}
	return &merged
}
