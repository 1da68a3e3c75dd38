package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"thermalprint/internal/agenda"
	"thermalprint/internal/config"
	"thermalprint/internal/forecast"
	"thermalprint/internal/ics"
	"thermalprint/internal/job"
	appLog "thermalprint/internal/log"
	"thermalprint/internal/printer"
	"thermalprint/internal/weather"
	"thermalprint/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	renderOnly bool
	debug      bool
	daemon     bool
	report     string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		appLog.Warn("failed to read .env", "err", err.Error())
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			return 1
		}
		appLog.Warn("could not write default config", "config_path", flags.configPath, "err", err.Error())
	}
	conf.ApplyEnv()
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("effective config",
		"device", conf.Printer.Device,
		"columns", conf.Printer.Columns,
		"timezone", conf.Agenda.Timezone,
		"ics_count", len(conf.Agenda.ICS),
		"models", conf.Weather.ModelsPath,
		"render_only", flags.renderOnly,
		"daemon", flags.daemon,
	)

	loc, err := time.LoadLocation(conf.Agenda.Timezone)
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Agenda.Timezone)
		return 1
	}

	runner := job.NewRunner(openFunc(conf, flags.renderOnly))
	runner.Now = func() time.Time { return time.Now().In(loc) }

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if flags.daemon {
		return runDaemon(ctx, conf, runner, loc)
	}

	rep, err := buildReport(conf, flags.report, loc)
	if err != nil {
		appLog.Error("failed to prepare report", err, "report", flags.report)
		return 1
	}
	code, err := runner.Run(ctx, rep)
	if err != nil {
		appLog.Error("report failed", err, "report", rep.Name())
		return 1
	}
	return code
}

func parseFlags(args []string) (flagConfig, error) {
	var cfg flagConfig

	fs := flag.NewFlagSet("thermalprint", flag.ContinueOnError)
	fs.StringVar(&cfg.configPath, "config", "/etc/thermalprint/config.yaml", "Path to config file")
	fs.StringVar(&cfg.listen, "listen", "", "Preview HTTP listen address (overrides config if set)")
	fs.BoolVar(&cfg.renderOnly, "render-only", false, "Write the receipt as text to stdout instead of printing")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&cfg.daemon, "daemon", false, "Print reports on their cron schedule and serve previews")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: thermalprint [flags] agenda|weather\n       thermalprint [flags] -daemon\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.daemon {
		if fs.NArg() != 0 {
			return cfg, errors.New("-daemon takes no report argument")
		}
		return cfg, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return cfg, errors.New("expected exactly one report: agenda or weather")
	}
	cfg.report = fs.Arg(0)
	return cfg, nil
}

func openFunc(conf *config.Config, renderOnly bool) job.OpenFunc {
	if renderOnly {
		return func(context.Context) (printer.Printer, error) {
			return printer.NewTextPrinter(os.Stdout, conf.Printer.Columns), nil
		}
	}
	return func(ctx context.Context) (printer.Printer, error) {
		return printer.Open(ctx, conf.Printer.Device, printer.Options{
			BaudRate: conf.Printer.BaudRate,
			HeatTime: conf.Printer.HeatTime,
			MaxDots:  printer.MaxDots,
		})
	}
}

func buildReport(conf *config.Config, name string, loc *time.Location) (job.Report, error) {
	switch name {
	case "agenda":
		return agendaReport(conf, loc)
	case "weather":
		return weatherReport(conf)
	default:
		return nil, fmt.Errorf("unknown report %q", name)
	}
}

func agendaReport(conf *config.Config, loc *time.Location) (*job.AgendaReport, error) {
	feeds := make([]ics.Feed, 0, len(conf.Agenda.ICS))
	for _, c := range conf.Agenda.ICS {
		id := c.ID
		if id == "" {
			id = c.Name
		}
		if id == "" {
			id = c.URL
		}
		feeds = append(feeds, ics.Feed{ID: id, URL: c.URL})
	}

	var header image.Image
	if conf.Agenda.HeaderImage != "" {
		img, err := printer.LoadPNG(conf.Agenda.HeaderImage)
		if err != nil {
			return nil, fmt.Errorf("header image: %w", err)
		}
		header = img
	}

	cal := ics.NewCalendar(ics.NewFetcher(conf.Agenda.CacheDir, nil), feeds, loc)
	return &job.AgendaReport{
		Source: cal,
		Layout: agenda.Report{
			Table: agenda.Table{
				Columns:       conf.Printer.Columns,
				WholeDayLabel: conf.Agenda.WholeDayLabel,
			},
			HeaderImage: header,
			Title:       conf.Agenda.Title,
			Footer:      conf.Agenda.Footer,
		},
		PrintEmpty: conf.Agenda.PrintEmpty,
	}, nil
}

func weatherReport(conf *config.Config) (*job.WeatherReport, error) {
	if conf.Weather.APIKey == "" {
		return nil, fmt.Errorf("weather api key missing (set %s)", config.EnvWeatherAPIKey)
	}
	store, err := weather.LoadStore(conf.Weather.ModelsPath)
	if err != nil {
		return nil, err
	}
	client := forecast.NewClient(forecast.Options{
		Endpoint:  conf.Weather.Endpoint,
		APIKey:    conf.Weather.APIKey,
		Latitude:  conf.Weather.Latitude,
		Longitude: conf.Weather.Longitude,
		Units:     conf.Weather.Units,
		Lang:      conf.Weather.Lang,
	})
	return &job.WeatherReport{Source: client, Store: store}, nil
}

func runDaemon(ctx context.Context, conf *config.Config, runner *job.Runner, loc *time.Location) int {
	var (
		entries []job.Entry
		reports []job.Report
	)
	for _, s := range []struct {
		name string
		spec string
	}{
		{"agenda", conf.Agenda.Schedule},
		{"weather", conf.Weather.Schedule},
	} {
		rep, err := buildReport(conf, s.name, loc)
		if err != nil {
			appLog.Warn("report disabled", "report", s.name, "err", err.Error())
			continue
		}
		reports = append(reports, rep)
		entries = append(entries, job.Entry{Spec: s.spec, Report: rep})
	}
	if len(entries) == 0 {
		appLog.Error("no report could be scheduled", errors.New("nothing to do"))
		return 1
	}

	srv := web.NewServer(conf, reports...)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			appLog.Error("preview server failed", err, "listen", conf.Listen)
		}
	}()

	if err := job.Schedule(ctx, runner, loc, entries); err != nil {
		appLog.Error("scheduler failed", err)
		return 1
	}
	appLog.Info("thermalprint exiting")
	return 0
}
