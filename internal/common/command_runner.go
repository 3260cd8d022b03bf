package common

import (
	"context"
	"fmt"
	"time"

	"atsoptimizer/internal/ai"
	"atsoptimizer/internal/errors"
)

// CreateInputFunc defines how to create the operation input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc runs the command's work on the prepared input.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunCommand reads the argument files, builds the input, runs the operation
// and writes its result in the configured format.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}

// UsageLogger reports AI token usage through the logger. The CLI uses it in
// place of the metrics recorder.
type UsageLogger struct {
	logger *errors.Logger
}

// NewUsageLogger creates a UsageLogger.
func NewUsageLogger(logger *errors.Logger) *UsageLogger {
	return &UsageLogger{logger: logger}
}

func (u *UsageLogger) RecordAIOperation(ctx context.Context, operation string, d time.Duration, usage *ai.TokenUsage, err error) {
	if err != nil {
		u.logger.Debug("AI operation failed", "operation", operation, "duration", d, "error", err)
		return
	}
	if usage == nil {
		return
	}
	u.logger.Info("AI token usage",
		"operation", operation,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"total_tokens", usage.TotalTokens,
		"duration", d)
}
