package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	app "github.com/riverstonefx/clob-engine/internal/app/engine"
	snapshotv1 "github.com/riverstonefx/clob-engine/internal/domain/snapshot/v1"
	matchpublisher "github.com/riverstonefx/clob-engine/internal/usecase/match-publisher"
	"github.com/riverstonefx/clob-engine/internal/usecase/matching"
	orderreader "github.com/riverstonefx/clob-engine/internal/usecase/order-reader"
	"github.com/riverstonefx/clob-engine/internal/usecase/snapshot"
	"github.com/riverstonefx/clob-engine/pkg/config"
	"github.com/riverstonefx/clob-engine/pkg/logger"
	"github.com/riverstonefx/clob-engine/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	config.MustLoad(cfg)

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	snapshotStore, closeSnapshotStore, err := buildSnapshotStore(ctx)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "build_snapshot_store"})
		return
	}
	defer closeSnapshotStore()

	matchingEngine := matching.NewEngine()
	if err := matchingEngine.RegisterSymbol(cfg.Pair, cfg.Unit); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "register_symbol"})
		return
	}

	oReader := orderreader.NewReader(cfg.KafkaConfig, log)
	fillPublisher := matchpublisher.NewPublisher(cfg.KafkaConfig, log)
	defer fillPublisher.Close()

	svc := app.NewServiceWithOptions(
		matchingEngine,
		oReader,
		fillPublisher,
		snapshotStore,
		log,
		cfg,
		func() string { return ulid.Make().String() },
		&app.Options{
			SnapshotInterval:    cfg.SnapshotConfig.SnapshotInterval,
			SnapshotOffsetDelta: cfg.SnapshotConfig.SnapshotOffsetDelta,
		},
	)

	if err := svc.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "start_engine"})
		return
	}

	log.Info("matching engine started", logger.Field{Key: "pair", Value: cfg.Pair})

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_engine"})
	}

	log.Info("matching engine shutdown complete")
}

// buildSnapshotStore selects the configured checkpoint backend and returns
// a close function to release whatever resources it opened.
func buildSnapshotStore(ctx context.Context) (snapshotv1.Store, func(), error) {
	switch cfg.SnapshotConfig.Backend {
	case "pebble":
		store, err := snapshot.OpenPebbleStore(cfg.SnapshotConfig.PebbleDir)
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		redisConfig := redis.DefaultConfig()
		redisConfig.Addr = cfg.RedisConfig.Addr
		redisConfig.Password = cfg.RedisConfig.Password
		redisConfig.Username = cfg.RedisConfig.Username
		redisConfig.DB = cfg.RedisConfig.DB

		rclient := redis.NewClient(log, redisConfig)
		if err := rclient.Connect(ctx); err != nil {
			return nil, func() {}, err
		}

		store := snapshot.NewRedisStore(rclient, cfg.Pair, log)
		return store, func() { _ = rclient.Disconnect(context.Background()) }, nil
	}
}
