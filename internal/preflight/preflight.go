package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"murmur/internal/config"
	"murmur/internal/deps"
	"murmur/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every status check for cfg. dir is the directory a run
// would target; it is skipped when empty. The provider is contacted only
// when probeProvider is set.
func RunAll(ctx context.Context, cfg *config.Config, dir string, probeProvider bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckAPIKey(cfg.Provider.APIKey))
	if probeProvider && strings.TrimSpace(cfg.Provider.APIKey) != "" {
		results = append(results, CheckProvider(ctx, cfg.Provider.BaseURL, cfg.Provider.APIKey))
	}

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if strings.TrimSpace(dir) != "" {
		results = append(results, CheckDirectoryAccess("Target directory", dir))
	}
	return results
}

// CheckSystemDeps evaluates the external binaries for cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(cfg.Paths.FFmpegBinary, cfg.Paths.FFprobeBinary))
}

// Require fails with services.ErrConfiguration when a required binary or the
// provider API key is missing.
func Require(cfg *config.Config) error {
	if cfg == nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "require", "config not loaded", nil)
	}
	var errs []error
	for _, status := range deps.Missing(CheckSystemDeps(cfg)) {
		errs = append(errs, fmt.Errorf("%s: %s", status.Name, status.Detail))
	}
	if err := cfg.RequireProvider(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "require", "", errors.Join(errs...))
}

func fromStatus(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Path}
	}
	return Result{Name: status.Name, Passed: status.Optional, Detail: status.Detail}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
