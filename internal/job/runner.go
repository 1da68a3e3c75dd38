// Package job runs the daily reports: build the receipt, gate on the
// printer's paper sensor, print, and read the status back.
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	appLog "thermalprint/internal/log"
	"thermalprint/internal/printer"
)

// Exit codes of a run.
const (
	ExitOK      = 0
	ExitNoPaper = 1
)

// Report builds the segments of one receipt. A nil result means there is
// nothing to print today.
type Report interface {
	Name() string
	Build(ctx context.Context, now time.Time) ([]printer.Segment, error)
}

// OpenFunc acquires the printer for one run.
type OpenFunc func(ctx context.Context) (printer.Printer, error)

// Runner owns access to the printer. Runs are serialized so that the
// printer is only ever driven by one report.
type Runner struct {
	Open OpenFunc
	Now  func() time.Time

	mu sync.Mutex
}

// NewRunner returns a Runner that acquires the printer with open.
func NewRunner(open OpenFunc) *Runner {
	return &Runner{Open: open, Now: time.Now}
}

// Run builds rep and prints it. Building happens before the printer is
// opened so that data-source or template errors never touch the hardware.
func (r *Runner) Run(ctx context.Context, rep Report) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	segs, err := rep.Build(ctx, now)
	if err != nil {
		return ExitOK, fmt.Errorf("%s: %w", rep.Name(), err)
	}
	if segs == nil {
		appLog.Info("nothing to print", "report", rep.Name())
		return ExitOK, nil
	}

	p, err := r.Open(ctx)
	if err != nil {
		return ExitOK, fmt.Errorf("%s: open printer: %w", rep.Name(), err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			appLog.Error("printer close failed", err, "report", rep.Name())
		}
	}()

	return printGated(ctx, p, rep.Name(), segs)
}

func printGated(ctx context.Context, p printer.Printer, name string, segs []printer.Segment) (int, error) {
	before, err := p.Status(ctx)
	if err != nil {
		return ExitOK, fmt.Errorf("%s: printer status: %w", name, err)
	}
	if !before.Paper {
		appLog.Warn("printer has no paper, skipping", "report", name)
		return ExitNoPaper, nil
	}

	if err := p.Print(ctx, segs...); err != nil {
		return ExitOK, fmt.Errorf("%s: print: %w", name, err)
	}

	after, err := p.Status(ctx)
	if err != nil {
		return ExitOK, fmt.Errorf("%s: printer status: %w", name, err)
	}
	if !after.Paper {
		appLog.Warn("printer ran out of paper", "report", name)
	}
	appLog.Info("report printed", "report", name, "segments", len(segs), "paper", after.Paper)
	return ExitOK, nil
}
