package main

import (
	"context"
	"slices"

	"github.com/urfave/cli/v3"
)

// CacheStats prints the number of cached documents per collection.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.cacheStats(ctx)
	if err != nil {
		return err
	}

	counts, err := stats.Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(counts, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Metadata cache (" + r.config.Database.Driver + ")")
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		r.writePlain("%-10s %d\n", name, counts[name])
	}
	return nil
}
