package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/khelo/internal/capture"
	"github.com/mrlokans/khelo/internal/config"
	"github.com/mrlokans/khelo/internal/connectivity"
	http_controllers "github.com/mrlokans/khelo/internal/http"
	"github.com/mrlokans/khelo/internal/metrics"
	"github.com/mrlokans/khelo/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Server Shutdown:", err)
	}

	// Stop background work after the last request has been answered
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting khelo v%s", version)

	c, err := Build(cfg, BuildOptions{})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var scheduler *tasks.Scheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:            cfg.Tasks.Workers,
			ReleaseAfter:       cfg.Tasks.ReleaseAfter,
			CleanupInterval:    cfg.Tasks.CleanupInterval,
			AuditRetentionDays: cfg.Audit.RetentionDays,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()
		scheduler = tasks.NewScheduler(taskClient)
	}

	// Reconnecting drains through the task queue when there is one, so a
	// drain survives the request or signal that started it.
	trigger := func(ctx context.Context) {
		go func() {
			if _, err := c.Engine.Drain(ctx); err != nil {
				log.Printf("[SYNC] Drain failed: %v", err)
			}
		}()
	}
	if scheduler != nil {
		trigger = scheduler.DrainTrigger("reconnect")
	}
	monitor := connectivity.New(trigger, c.Settings, connectivity.WithInitialState(true))

	var prober *connectivity.Prober
	if cfg.Connectivity.ProbeEnabled {
		prober = connectivity.NewProber(monitor, connectivity.ProbeConfig{
			URL:      cfg.Connectivity.ProbeURL,
			Schedule: cfg.Connectivity.ProbeSchedule,
			Timeout:  cfg.Connectivity.ProbeTimeout,
		})
		if err := prober.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start connectivity probe: %v", err)
		}
	}

	captureOpts := []capture.Option{
		capture.WithAnalysisSaver(c.Analyses),
		capture.WithAuditLogger(c.Audit),
		capture.WithDefaultAthlete(cfg.Analysis.DefaultAthleteID),
	}
	if scheduler != nil {
		captureOpts = append(captureOpts, capture.WithScheduler(scheduler))
	}
	recorder := capture.NewService(c.Queue, c.Settings, c.Analyzer, captureOpts...)

	if taskClient != nil {
		taskClient.Register(
			tasks.NewDrainQueueQueue(c.Engine, monitor.Session),
			tasks.NewAnalyzeRecordingQueue(recorder),
			tasks.NewPruneAuditQueue(c.Audit),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if err := scheduler.ScheduleAuditPrune(taskCtx); err != nil {
			log.Printf("Failed to schedule audit prune: %v", err)
		}
	}

	// Work queued by a previous run goes out as soon as we are up.
	if monitor.CheckOnline(context.Background()) == nil {
		trigger(monitor.Session())
	}

	routerCfg := http_controllers.RouterConfig{
		Queue:       c.Queue,
		Engine:      c.Engine,
		Settings:    c.Settings,
		Recorder:    recorder,
		Monitor:     monitor,
		Progress:    c.Progress,
		AuditReader: c.Audit,
		AuditLogger: c.Audit,
		HealthChecks: map[string]http_controllers.Pinger{
			"database": c.DB,
			"queue": http_controllers.PingFunc(func(ctx context.Context) error {
				_, err := c.Queue.Stats(ctx)
				return err
			}),
		},
		Version: version,
	}
	if scheduler != nil {
		routerCfg.Scheduler = scheduler
	}
	if c.Registry != nil {
		routerCfg.Metrics = metrics.Handler(c.Registry)
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if prober != nil {
			prober.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
