package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/proofgridgo/internal/apperrors"
	"github.com/vk/proofgridgo/internal/ctxlog"
	"github.com/vk/proofgridgo/internal/executor"
)

// Run executes one verification batch based on the provided configuration.
// The returned error is non-nil iff the batch failed (or could not start),
// so the caller's process exit status reflects the batch outcome.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.StatusPort > 0 {
		a.startStatusServer(appConfig.StatusPort)
	}

	units, err := a.selectUnits(appConfig)
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Starting verification batch.", "units", len(units), "workers", a.bench.Workers)
	summary, runErr := a.exec.Run(ctx, units)
	a.logger.Info("🏁 Verification batch finished.")

	a.printSummary(summary)
	if runErr != nil {
		return fmt.Errorf("batch failed: %w", runErr)
	}
	return nil
}

// selectUnits resolves the configured selection: explicit identifiers are
// validated against discovery, an empty selection expands to every
// discovered unit.
func (a *App) selectUnits(appConfig *Config) ([]string, error) {
	discovered, err := executor.Discover(a.bench.UnitsDir, a.bench.UnitPrefix, a.bench.UnitExt)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Units discovered.", "count", len(discovered))

	if len(appConfig.Units) == 0 {
		return discovered, nil
	}

	known := make(map[string]bool, len(discovered))
	for _, unit := range discovered {
		known[unit] = true
	}
	selected := make([]string, 0, len(appConfig.Units))
	for _, unit := range appConfig.Units {
		if !known[unit] {
			return nil, apperrors.Discovery(fmt.Sprintf("unknown unit %q", unit))
		}
		selected = append(selected, unit)
	}
	sort.Strings(selected)
	return selected, nil
}

// printSummary writes one line per unit plus totals to the app's output.
func (a *App) printSummary(summary *executor.Summary) {
	if summary == nil {
		return
	}
	results := summary.Results()
	units := make([]string, 0, len(results))
	for unit := range results {
		units = append(units, unit)
	}
	sort.Strings(units)

	for _, unit := range units {
		r := results[unit]
		if r.Err != nil {
			fmt.Fprintf(a.outW, "%-20s %s: %v\n", unit, r.Outcome, r.Err)
			continue
		}
		fmt.Fprintf(a.outW, "%-20s %s\n", unit, r.Outcome)
	}
	fmt.Fprintf(a.outW, "verified %d, skipped %d, failed %d, aborted %d\n",
		summary.Count(executor.OutcomeVerified),
		summary.Count(executor.OutcomeSkipped),
		summary.Count(executor.OutcomeFailed),
		summary.Count(executor.OutcomeAborted),
	)
}
