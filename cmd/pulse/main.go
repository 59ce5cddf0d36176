package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PolicyPulse/internal/analysis"
	"PolicyPulse/internal/chart"
	"PolicyPulse/internal/collector"
	"PolicyPulse/internal/config"
	"PolicyPulse/internal/notifier"
	"PolicyPulse/internal/recorder"
	"PolicyPulse/internal/scheduler"
	"PolicyPulse/internal/state"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		cfgPath = flag.String("config", "configs/config.yaml", "path to the YAML config")
		study   = flag.String("study", "all", "study to run: all, shocks, policy, capex")
		fetch   = flag.Bool("fetch", false, "rebuild datasets from the upstream APIs instead of the CSV cache")
		daemon  = flag.Bool("daemon", false, "run the cron daemon with Telegram alerting")
	)
	flag.Parse()

	log.Println("[INFO] PolicyPulse starting...")

	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	fred := collector.NewFREDFetcher(cfg.FRED.BaseURL, cfg.FRED.APIKey, cfg.Proxy)
	yahoo := collector.NewYahooFetcher(cfg.Proxy)
	col := collector.New(fred, yahoo, cfg.Paths.DataDir)
	charts := chart.NewRenderer(cfg.Paths.OutputDir)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	runner := analysis.NewRunner(col, charts, rec, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*daemon {
		runOnce(ctx, runner, *study, *fetch)
		return
	}

	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		log.Fatalf("[FATAL] daemon mode needs telegram.bot_token and telegram.chat_id")
	}

	sm, err := state.NewManager(cfg.Paths.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init state manager: %v", err)
	}
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	sched := scheduler.NewScheduler(ctx, runner, sm, tn)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.WeeklyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily refresh now")
		go sched.RunDailyNow()
	}

	log.Println("[INFO] PolicyPulse is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] PolicyPulse stopped")
}

func runOnce(ctx context.Context, runner *analysis.Runner, study string, fetch bool) {
	var err error
	switch study {
	case "all":
		err = runner.RunAll(ctx, fetch)
	case "shocks":
		_, err = runner.RunShocks(ctx, fetch)
	case "policy":
		err = runner.RunPolicy(ctx, fetch)
	case "capex":
		err = runner.RunCapex(ctx, fetch)
	default:
		log.Fatalf("[FATAL] unknown study %q (want all, shocks, policy or capex)", study)
	}
	if err != nil {
		log.Fatalf("[FATAL] %s study: %v", study, err)
	}
	log.Printf("[INFO] %s study finished", study)
}
