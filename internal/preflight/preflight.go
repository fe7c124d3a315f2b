package preflight

import (
	"context"

	"clipper/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The Telegram check runs only when a token is configured; apiBase may be
// empty to use the public endpoint.
func RunAll(ctx context.Context, cfg *config.Config, apiBase string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}

	if cfg.Telegram.Token != "" {
		results = append(results, CheckTelegram(ctx, apiBase, cfg.Telegram.Token))
	}

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
