// Package batch maps many streamlines in parallel and accumulates the
// results into a track-weighted image.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"twimap/internal/models"
	"twimap/internal/monitoring"
	"twimap/pkg/mapping"
)

// Params controls a batch run
type Params struct {
	// NumWorkers is the number of streamlines mapped concurrently. Each
	// worker owns a clone of the mapper. Zero uses every CPU.
	NumWorkers int

	// ProgressEvery logs progress after every n mapped streamlines.
	// Zero disables progress logging.
	ProgressEvery int
}

// Stats summarises a batch run
type Stats struct {
	// Mapped is the number of streamlines merged into the map
	Mapped int

	// Skipped counts streamlines rejected by the mapper (fewer than two points)
	Skipped int
}

// Run maps every streamline in tcks with a clone of m per worker and merges
// the results into out. Streamlines too short to map are skipped and
// counted. Any other mapping error stops the run. Cancelling ctx stops
// workers from taking further streamlines; the partial map is kept.
func Run(ctx context.Context, m *mapping.Mapper, tcks []models.Streamline, out *TWIMap, params Params) (Stats, error) {
	workers := params.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tcks) {
		workers = len(tcks)
	}

	var (
		next    atomic.Int64
		mapped  atomic.Int64
		skipped atomic.Int64
	)
	total := int64(len(tcks))

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		worker := m.Clone()
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := next.Add(1) - 1
				if i >= total {
					return nil
				}

				set, factor, err := worker.Map(tcks[i])
				if errors.Is(err, mapping.ErrShortStreamline) {
					skipped.Add(1)
					continue
				}
				if err != nil {
					return fmt.Errorf("streamline %d: %w", i, err)
				}
				out.Add(set, factor)

				done := mapped.Add(1)
				if params.ProgressEvery > 0 && done%int64(params.ProgressEvery) == 0 {
					monitoring.Logf("mapped %s of %s streamlines (%.1f%%)",
						humanize.Comma(done), humanize.Comma(total), 100*float64(done)/float64(total))
				}
			}
		})
	}

	err := g.Wait()
	stats := Stats{Mapped: int(mapped.Load()), Skipped: int(skipped.Load())}
	if stats.Skipped > 0 {
		monitoring.Logf("skipped %s streamlines with fewer than two points", humanize.Comma(int64(stats.Skipped)))
	}
	return stats, err
}

// MapSerial maps every streamline on the calling goroutine with m itself.
// It gives the same map as Run and is used where ordering of the log output
// matters more than speed.
func MapSerial(m *mapping.Mapper, tcks []models.Streamline, out *TWIMap) (Stats, error) {
	var stats Stats
	for i, tck := range tcks {
		set, factor, err := m.Map(tck)
		if errors.Is(err, mapping.ErrShortStreamline) {
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("streamline %d: %w", i, err)
		}
		out.Add(set, factor)
		stats.Mapped++
	}
	return stats, nil
}
