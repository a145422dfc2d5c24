package mosaic

import (
	"context"
	"sync"
)

// band is a half-open range of cell rows handled by one worker.
type band struct {
	start, end int
}

// divideRows splits rows into at most workers contiguous bands whose sizes
// differ by at most one.
func divideRows(rows, workers int) []band {
	if workers < 1 {
		workers = 1
	}
	if workers > rows {
		workers = rows
	}
	bands := make([]band, 0, workers)
	base, extra := rows/workers, rows%workers
	start := 0
	for w := 0; w < workers; w++ {
		n := base
		if w < extra {
			n++
		}
		bands = append(bands, band{start: start, end: start + n})
		start += n
	}
	return bands
}

// run renders all cell rows, in parallel bands when workers > 1.
// Cancellation is checked between rows.
func (r *renderer) run(ctx context.Context, rows, workers int) error {
	if workers < 2 {
		for j := 0; j < rows; j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.renderRow(j)
		}
		return nil
	}

	var wg sync.WaitGroup
	for _, b := range divideRows(rows, workers) {
		wg.Add(1)
		go func(b band) {
			defer wg.Done()
			for j := b.start; j < b.end; j++ {
				if ctx.Err() != nil {
					return
				}
				r.renderRow(j)
			}
		}(b)
	}
	wg.Wait()

	return ctx.Err()
}
