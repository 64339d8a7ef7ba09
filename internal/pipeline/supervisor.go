package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"dubber/internal/logging"
	"dubber/internal/mediaid"
)

// Supervisor fans a batch of videos out over a bounded pool of workers, each
// worker running the Driver one item at a time.
type Supervisor struct {
	driver  *Driver
	workers int
	logger  *slog.Logger
}

// NewSupervisor builds a supervisor with the given pool width. Widths below
// one are clamped to one.
func NewSupervisor(driver *Driver, workers int, logger *slog.Logger) *Supervisor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{driver: driver, workers: workers, logger: logger}
}

// RunAll processes every video and returns one outcome per dispatched item,
// in completion order. Item failures never stop the batch; cancelling ctx
// stops dispatching new items while in-flight items run to their own
// cancellation-aware conclusion.
func (s *Supervisor) RunAll(ctx context.Context, videos []mediaid.Video) []Outcome {
	if len(videos) == 0 {
		return nil
	}

	jobs := make(chan mediaid.Video)
	results := make(chan Outcome)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for video := range jobs {
				results <- s.driver.Process(ctx, video)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, video := range videos {
			select {
			case jobs <- video:
			case <-ctx.Done():
				s.logger.Warn("run interrupted, not dispatching remaining items",
					logging.Int("remaining", remaining(videos, video)),
				)
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]Outcome, 0, len(videos))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func remaining(videos []mediaid.Video, current mediaid.Video) int {
	for i, v := range videos {
		if v.Raw == current.Raw {
			return len(videos) - i
		}
	}
	return 0
}
