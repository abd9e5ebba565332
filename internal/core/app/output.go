package app

import (
	"fmt"
	"log/slog"

	"frontier/internal/core/errors"
	"frontier/internal/output"
)

// GenerateOutputs renders the current view to every artifact path configured
// under [output]. Paths left empty are skipped.
func (a *App) GenerateOutputs() error {
	g := a.View()
	if g == nil {
		return errors.New(errors.CodeValidationError, "no analysis to export")
	}
	targets := a.Config.Output

	if targets.DOT != "" {
		dot, err := output.NewDOTGenerator(g).Generate()
		if err != nil {
			return fmt.Errorf("generate DOT output: %w", err)
		}
		if err := output.WriteArtifact(targets.DOT, dot); err != nil {
			return fmt.Errorf("write DOT output %q: %w", targets.DOT, err)
		}
		slog.Debug("wrote DOT artifact", "path", targets.DOT)
	}

	if targets.TSV != "" {
		gen := output.NewTSVGenerator(g)
		edges, err := gen.Generate()
		if err != nil {
			return fmt.Errorf("generate TSV output: %w", err)
		}
		nodes, err := gen.GenerateNodes()
		if err != nil {
			return fmt.Errorf("generate TSV node output: %w", err)
		}
		if err := output.WriteArtifact(targets.TSV, nodes+"\n"+edges); err != nil {
			return fmt.Errorf("write TSV output %q: %w", targets.TSV, err)
		}
		slog.Debug("wrote TSV artifact", "path", targets.TSV)
	}

	if targets.JSON != "" {
		payload, err := output.NewJSONGenerator(g).Generate()
		if err != nil {
			return fmt.Errorf("generate JSON output: %w", err)
		}
		if err := output.WriteArtifact(targets.JSON, payload); err != nil {
			return fmt.Errorf("write JSON output %q: %w", targets.JSON, err)
		}
		slog.Debug("wrote JSON artifact", "path", targets.JSON)
	}

	return nil
}
