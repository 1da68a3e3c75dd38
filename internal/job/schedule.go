package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "thermalprint/internal/log"
)

// cronLogger forwards cron's internal logging to the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}

// Entry binds a report to a cron expression.
type Entry struct {
	Spec   string
	Report Report
}

// Schedule runs each entry on its cron spec until ctx is done.
func Schedule(ctx context.Context, runner *Runner, loc *time.Location, entries []Entry) error {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{})),
	)

	for _, e := range entries {
		rep := e.Report
		if _, err := c.AddFunc(e.Spec, func() {
			code, err := runner.Run(ctx, rep)
			if err != nil {
				appLog.Error("scheduled report failed", err, "report", rep.Name())
				return
			}
			appLog.Info("scheduled report done", "report", rep.Name(), "exit_code", code)
		}); err != nil {
			return fmt.Errorf("job: schedule %s %q: %w", rep.Name(), e.Spec, err)
		}
		appLog.Info("report scheduled", "report", rep.Name(), "spec", e.Spec, "timezone", loc.String())
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
