package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/checker"
	"github.com/sandeepkv93/tasker/internal/config"
	"github.com/sandeepkv93/tasker/internal/logging"
	"github.com/sandeepkv93/tasker/internal/messenger"
	"github.com/sandeepkv93/tasker/internal/metrics"
	"github.com/sandeepkv93/tasker/internal/model"
	"github.com/sandeepkv93/tasker/internal/notify"
	"github.com/sandeepkv93/tasker/internal/reminder"
	"github.com/sandeepkv93/tasker/internal/scheduler"
	"github.com/sandeepkv93/tasker/internal/storage"
	"github.com/sandeepkv93/tasker/internal/taskstore"
	"github.com/sandeepkv93/tasker/internal/update"
)

func main() {
	configPath := flag.String("config", "", "path to tasker.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "tasker failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	log, flush := logging.New(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cfg.Log.Console,
	})
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := openKV(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeKV()
	log.Info("storage ready", zap.String("backend", cfg.Store.Backend))

	store := taskstore.New(kv, log.Named("store"), taskstore.WithLocation(loc))

	var display notify.Notifier = notify.NoopNotifier{}
	if cfg.Notifications.Desktop {
		perm := &notify.ExecPermission{}
		if !perm.Request(ctx) {
			log.Warn("desktop notifications unavailable, reminders show in the task view only")
		}
		display = notify.Guarded{Notifier: notify.ExecNotifier{}, Permission: perm, Log: log.Named("notify")}
	}

	bus := messenger.NewBus(0)

	var (
		engine *scheduler.Engine
		native *scheduler.Native
	)
	deps := update.Deps{
		Store:  store,
		Signal: bus,
		Log:    log.Named("view"),
	}
	if cfg.Reminders.NativeAlarms {
		engine = scheduler.NewEngine(cfg.Reminders.AlarmBuffer)
		engine.OnDrop(func(a scheduler.Alarm) {
			metrics.RecordAlarmDropped()
			log.Warn("fired alarm dropped", zap.String("task_id", a.Extra.TaskID), zap.String("kind", a.Extra.Type))
		})
		engine.Start()
		defer engine.Stop()
		native = scheduler.NewNative(engine, loc, log.Named(scheduler.DriverNative))
		deps.Native = native
		deps.Alarms = engine
	}

	program := tea.NewProgram(update.NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	fired := func(driver string) func(reminder.Due) {
		return func(d reminder.Due) {
			program.Send(update.ReminderFired(driver, d, time.Now()))
		}
	}

	client := bus.Register()
	defer client.Close()
	responder := messenger.Responder{
		Store:    store,
		Log:      log.Named("responder"),
		OnUpdate: func(string, model.NotificationFlag) { program.Send(update.TasksChangedMsg{}) },
	}
	go func() { _ = responder.Serve(ctx, client) }()

	foreground := checker.NewForeground(store, bus, checker.Options{
		Notifier: display,
		Location: loc,
		Log:      log.Named(checker.DriverForeground),
		Interval: cfg.Reminders.ForegroundInterval,
		OnFired:  fired(checker.DriverForeground),
	})
	go func() { _ = foreground.Run(ctx) }()

	background := checker.NewBackground(bus, cfg.Reminders.ReplyTimeout, checker.Options{
		Notifier: display,
		Location: loc,
		Log:      log.Named(checker.DriverBackground),
		Interval: cfg.Reminders.BackgroundInterval,
		OnFired:  fired(checker.DriverBackground),
	})
	go func() { _ = background.Run(ctx) }()

	if native != nil {
		if err := native.CreateChannels(ctx); err != nil {
			return err
		}
		tasks, err := store.Tasks(ctx)
		if err != nil {
			return err
		}
		n, err := native.ScheduleAll(ctx, tasks, time.Now())
		if err != nil {
			log.Warn("booking alarms at startup failed", zap.Error(err))
		}
		log.Info("native alarms booked", zap.Int("alarms", n))

		shown := notify.Fanout{display, update.AlarmLog{Send: program.Send, Tasks: store}}
		go func() { _ = scheduler.Dispatch(ctx, engine.C(), shown, log.Named(scheduler.DriverNative)) }()
	}

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func openKV(ctx context.Context, cfg config.StoreConfig) (storage.KV, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		kv, err := storage.OpenRedis(ctx, storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}
		return kv, closer(kv), nil
	case config.BackendMemory:
		return storage.NewMemoryKV(), func() {}, nil
	default:
		kv, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return kv, closer(kv), nil
	}
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return srv
}
