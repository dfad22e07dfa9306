package preflight

import (
	"context"

	"wastetwin/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the log directory and the category catalog, plus ntfy when a
// topic is configured. Composition coverage is only checked once the catalog
// has loaded.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckLogDir(cfg.Paths.LogDir)}

	cat, catalogResult := CheckCatalog(cfg.Paths.CatalogPath)
	results = append(results, catalogResult)
	if cat != nil {
		results = append(results, CheckComposition(cat))
	}
	if cfg.NotificationsEnabled() {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
