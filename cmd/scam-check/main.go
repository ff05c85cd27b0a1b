package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/di"
	"github.com/mikey/llm-scam-detector/internal/ports"
	"go.uber.org/zap"
)

// maxInputBytes caps how much of the input is read
const maxInputBytes = 1 << 20

var errNoContent = errors.New("no content to analyze")

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(
		logger *zap.Logger,
		frontend ports.Frontend,
		analyzer ports.Analyzer,
		classifier core.AIClassifier,
	) error {
		defer logger.Sync() //nolint:errcheck

		if closer, ok := classifier.(interface{ Close() error }); ok {
			defer func() {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close LLM client", zap.Error(err))
				}
			}()
		}

		return run(flags, logger, frontend, analyzer, os.Stdin, os.Stdout)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	frontend ports.Frontend,
	analyzer ports.Analyzer,
	stdin io.Reader,
	stdout io.Writer,
) error {
	content, err := readInput(flags.InputFile, stdin, logger)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return errNoContent
	}

	sub := &core.Submission{
		Content: content,
		Type:    core.ParseContentType(flags.ContentType),
		Source:  "cli",
	}

	ctx := context.Background()
	if flags.JSONOutput {
		result, err := analyzer.Analyze(ctx, sub)
		if err != nil {
			return fmt.Errorf("failed to analyze content: %w", err)
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	_, err = frontend.ProcessSubmission(ctx, sub)
	return err
}

// readInput reads the content from a file or stdin
func readInput(path string, stdin io.Reader, logger *zap.Logger) (string, error) {
	r := stdin
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
		logger.Info("Reading content from file", zap.String("file", path))
	} else {
		logger.Info("Reading content from stdin")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
