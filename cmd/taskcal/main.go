package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"taskcal/internal/config"
	appLog "taskcal/internal/log"
	"taskcal/internal/refresh"
	"taskcal/internal/store"
	"taskcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	tasks      string
	once       bool
	view       string
	date       string
	now        string
}

func main() {
	flags := parseFlags()

	appLog.Info("taskcal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file when set.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.tasks != "" {
		conf.Tasks = flags.tasks
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"tasks", conf.Tasks,
		"day_start_hour", conf.Layout.DayStartHour,
		"day_end_hour", conf.Layout.DayEndHour,
		"once", flags.once,
	)

	loc := conf.Location()
	tasks := store.New(conf.Tasks, loc)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := tasks.Reload(ctx); err != nil {
		if flags.once {
			appLog.Error("failed to load tasks", err, "path", conf.Tasks)
			os.Exit(1)
		}
		// The scheduler retries; the API answers 503 until the first load.
		appLog.Error("initial task load failed", err, "path", conf.Tasks)
	}

	srv := web.NewServer(conf, tasks, web.WithLocation(loc))

	if flags.once {
		if err := srv.WriteLayout(ctx, os.Stdout, flags.view, flags.date, flags.now); err != nil {
			appLog.Error("layout failed", err, "view", flags.view, "date", flags.date)
			os.Exit(1)
		}
		return
	}

	sched, err := refresh.New(conf.RefreshCron, tasks)
	if err != nil {
		appLog.Error("failed to create refresh scheduler", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	if err := srv.Serve(ctx); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		cancel()
		wg.Wait()
		os.Exit(1)
	}

	wg.Wait()
	appLog.Info("taskcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/taskcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.tasks, "tasks", "", "Task file, .yaml or .ics (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print one layout as JSON and exit")
	flag.StringVar(&cfg.view, "view", "week", "Layout view for -once: day or week")
	flag.StringVar(&cfg.date, "date", "", "Date inside the view for -once, YYYY-MM-DD (default today)")
	flag.StringVar(&cfg.now, "now", "", "Now-marker instant for -once, RFC3339 (default current time)")

	flag.Parse()

	return cfg
}
