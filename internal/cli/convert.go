package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/reshape"
	"github.com/aretw0/reshape/internal/logging"
	"github.com/aretw0/reshape/pkg/events"
)

// ConvertOptions contains all the configuration for the convert command.
type ConvertOptions struct {
	InputPath      string
	RulesPath      string
	OutputPath     string
	Batch          bool
	Debug          bool
	SequenceStarts []string
}

// ExecuteConvert handles the convert command: resolves the input and
// output paths, then dispatches to single-file or batch mode.
func ExecuteConvert(ctx context.Context, opts ConvertOptions) error {
	renderer := NewStderrRenderer()
	logger := createLogger(opts.Debug)

	if opts.InputPath == "" {
		return fmt.Errorf("no input file or directory given, use -i")
	}

	overrides, problems := ParseSequenceStarts(opts.SequenceStarts)
	for _, p := range problems {
		renderer.Warnf("%v", p)
	}
	if len(overrides) > 0 {
		logger.Info("sequence start overrides active", "overrides", overrides)
	}

	rulesDoc, err := os.ReadFile(opts.RulesPath)
	if err != nil {
		return fmt.Errorf("reading rules file: %w", err)
	}

	conv, err := reshape.NewFromBytes(rulesDoc,
		reshape.WithLogger(logger),
		reshape.WithSequenceOverrides(overrides),
		reshape.WithHooks(renderHooks(renderer)),
	)
	if err != nil {
		return fmt.Errorf("rules file %s: %w", opts.RulesPath, err)
	}
	defer renderer.Done()

	info, err := os.Stat(opts.InputPath)
	if err != nil {
		return fmt.Errorf("input path %s: %w", opts.InputPath, err)
	}

	if info.IsDir() {
		inputs, err := DiscoverInputs(opts.InputPath)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no .yml or .yaml files found in %s", opts.InputPath)
		}

		if opts.Batch {
			return convertBatch(ctx, conv, renderer, inputs, opts.OutputPath)
		}
		renderer.Warnf("input is a directory but --batch is off, converting only %s", inputs[0])
		return convertOne(ctx, conv, renderer, inputs[0], singleOutputPath(inputs[0], opts.OutputPath))
	}

	if opts.Batch {
		renderer.Warnf("--batch has no effect for a single input file")
	}
	return convertOne(ctx, conv, renderer, opts.InputPath, singleOutputPath(opts.InputPath, opts.OutputPath))
}

// singleOutputPath resolves where a single converted file goes: the
// default name when nothing was given, inside the directory when the
// output is one, and never on top of the input.
func singleOutputPath(inputPath, outputPath string) string {
	if outputPath == "" {
		return "converted_items.yml"
	}
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, filepath.Base(inputPath))
	}
	return avoidCollision(inputPath, outputPath)
}

func convertOne(ctx context.Context, conv *reshape.Converter, renderer *Renderer, inputPath, outputPath string) error {
	tree, err := LoadTree(inputPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", inputPath, err)
	}

	out, err := conv.Convert(ctx, tree)
	if err != nil {
		return fmt.Errorf("converting %s: %w", inputPath, err)
	}

	if err := SaveTree(outputPath, out); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	renderer.Successf("%s -> %s", inputPath, outputPath)
	return nil
}

// convertBatch converts each input independently into outputDir. Counter
// state restarts per file. A failed file is reported and the batch keeps
// going; the error return covers the batch as a whole.
func convertBatch(ctx context.Context, conv *reshape.Converter, renderer *Renderer, inputs []string, outputDir string) error {
	if outputDir == "" {
		outputDir = "converted_output"
	}
	if info, err := os.Stat(outputDir); err == nil && !info.IsDir() {
		return fmt.Errorf("batch output path %s must be a directory", outputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	renderer.Infof("converting %d files into %s", len(inputs), outputDir)

	succeeded := 0
	for _, inputPath := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		outputPath := avoidCollision(inputPath, filepath.Join(outputDir, filepath.Base(inputPath)))
		if err := convertOne(ctx, conv, renderer, inputPath, outputPath); err != nil {
			renderer.Errorf("%v", err)
			continue
		}
		succeeded++
	}

	renderer.Infof("%d/%d files converted", succeeded, len(inputs))
	if succeeded < len(inputs) {
		return fmt.Errorf("%d of %d files failed", len(inputs)-succeeded, len(inputs))
	}
	return nil
}

// renderHooks adapts engine events to terminal output.
func renderHooks(renderer *Renderer) events.Hooks {
	return events.Hooks{
		OnItemStart: func(_ context.Context, ev *events.ItemEvent) {
			renderer.Progress(ev.ContentKey, ev.Index, ev.Total, ev.ContentID)
		},
		OnDiagnostic: func(_ context.Context, ev *events.DiagnosticEvent) {
			line := fmt.Sprintf("%s/%s %s: %s", ev.ContentID, ev.Rule, ev.Action, ev.Message)
			if ev.Severity == events.SeverityError {
				renderer.Errorf("%s", line)
				return
			}
			renderer.Warnf("%s", line)
		},
	}
}

// createLogger configures the application logger. Outside debug mode the
// library stays quiet; the renderer carries user-facing output.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}
