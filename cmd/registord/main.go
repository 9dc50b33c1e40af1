package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/core"
	"main/internal/ctl"
	"main/internal/ingest"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/router"
	"main/internal/watch"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	wsURL := flag.String("ws-url", "", "Feed websocket url")
	profile := flag.Bool("pyroscope", false, "Enable pyroscope profiling")
	profileAddr := flag.String("pyroscope-addr", "http://localhost:4040", "Pyroscope server address")
	statsInterval := flag.Duration("stats-interval", 15*time.Second, "Metrics report interval (0=disable)")
	flag.Parse()

	if *wsURL == "" {
		log.Fatalf("missing feed url; use -ws-url")
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *profile {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "registord",
			ServerAddress:   *profileAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	met := obs.NewMetrics()
	registry := core.New(loaded, met)

	client := ingest.NewClient(ctx, *wsURL)
	if err := client.StartWebsocket(ctx); err != nil {
		log.Fatalf("websocket start failed: %+v", err)
	}
	defer client.Close()

	var watcher *watch.Manager
	if loaded.Features.EnableWatch {
		watcher = watch.NewManager(client, registry.Events(), loaded.Sports, loaded.AutoSubscribeDelay)
		registry.AttachWatch(watcher)
	}

	rt := router.New(registry, met)
	queue := bus.NewQueue(loaded.QueueCapacity)

	unsubscribe := client.ObserveFrames(ctx, queue, func(err error) {
		if err == bus.ErrQueueClosed {
			met.IncQueueClosed()
			return
		}
		met.IncQueueDrop()
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(ctx, func(f bus.Frame) {
			rt.Route(f.Raw, f.RecvTs)
		})
	}()

	if loaded.Features.EnableCtl {
		server, err := ctl.New(loaded.CtlSocket, registry.Engine())
		if err != nil {
			log.Fatalf("ctl init failed: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Serve(ctx); err != nil {
				logs.Errorf("ctl server stopped: %+v", err)
			}
		}()
		logs.Info("ctl listening: " + loaded.CtlSocket)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runMaintenance(ctx, loaded, registry, watcher)
	}()

	if *statsInterval > 0 {
		go reportMetrics(ctx, met, *statsInterval)
	}

	logs.Info("registord running, feed: " + *wsURL)
	<-ctx.Done()
	queue.Close()
	wg.Wait()
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}

// runMaintenance drives expiry sweeps, betslip recomputes, and the watch
// manager from one goroutine.
func runMaintenance(ctx context.Context, loaded ops.Loaded, registry *core.Registry, watcher *watch.Manager) {
	sweep := time.NewTicker(loaded.SweepInterval)
	defer sweep.Stop()

	flush := time.NewTicker(time.Second)
	defer flush.Stop()

	check := time.NewTicker(loaded.SubscribeCheck)
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			registry.Sweep()
		case <-flush.C:
			registry.Flush()
			if watcher != nil {
				now := time.Now().UnixMilli()
				if n := watcher.FlushDue(now); n > 0 {
					logs.Infof("watch_hcaps batch sent: %d events", n)
				}
			}
		case <-check.C:
			if watcher != nil {
				watcher.PeriodicCheck(time.Now().UnixMilli())
			}
		}
	}
}

func reportMetrics(ctx context.Context, met *obs.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := met.Snapshot()
			logs.Infof("metrics: kinds=%v route_errors=%d drops=%d stale_quotes=%d recomputes=%d orders_expired=%d betslips_dropped=%d route_latency=%+v",
				snap.KindCounts, snap.RouteErrors, snap.QueueDrops, snap.StaleQuotes,
				snap.Recomputes, snap.OrdersExpired, snap.BetslipsDropped, snap.RouteLatency)
		}
	}
}
