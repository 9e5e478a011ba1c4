package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcAdapter "github.com/amirrudd/flyerboard/internal/adapter/grpc"
	"github.com/amirrudd/flyerboard/internal/adapter/repository/cache"
	"github.com/amirrudd/flyerboard/internal/bus"
	"github.com/amirrudd/flyerboard/internal/config"
	"github.com/amirrudd/flyerboard/internal/feedcache"
	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/amirrudd/flyerboard/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadWatchConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := grpcAdapter.DialFeed(cfg.FeedAddress, cfg.AuthToken)
	if err != nil {
		appLogger.Fatal("Failed to dial feed service", zap.Error(err))
	}
	defer client.Close()

	events := bus.New()
	opts := feedcache.Options{
		PageSize: cfg.PageSize,
		Throttle: cfg.RefreshThrottle,
		Bus:      events,
		Subject:  cfg.ClientID,
	}
	if cfg.RedisAddress != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisAddress, "", 0)
		if err != nil {
			appLogger.Warn("Location preference disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			opts.Preferences = cache.NewPreferenceStore(redisClient)
		}
	}

	ctrl := feedcache.NewController(client, opts, appLogger)
	poller := feedcache.NewPoller(ctrl, cfg.PollInterval, cfg.HighlightDuration, appLogger)
	s := &session{ctrl: ctrl, poller: poller, views: client, out: os.Stdout}

	initial := ctrl.RestoreFilter(ctx, domain.NewTuple(cfg.Category, cfg.Search, cfg.Location))
	if _, err := ctrl.OnFilterChange(ctx, initial); err != nil {
		appLogger.Fatal("Failed to load the feed", zap.Error(err))
	}
	s.render()

	arrivals := events.Subscribe(bus.KindFeedArrived, 16)
	defer arrivals.Unsubscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-arrivals.C:
				if p, ok := evt.Payload.(bus.ArrivedPayload); ok {
					fmt.Fprintf(os.Stdout, "\n%d new listing(s)\n", len(p.IDs))
					s.render()
				}
			}
		}
	}()

	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error("Feed poller stopped", zap.Error(err))
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, ok := parseCommand(line)
			if !ok {
				continue
			}
			err := s.exec(ctx, cmd)
			if errors.Is(err, errQuit) {
				return
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
	}
}
