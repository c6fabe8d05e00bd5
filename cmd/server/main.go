package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campusdesk/portal/internal/api"
	"github.com/campusdesk/portal/internal/auth"
	"github.com/campusdesk/portal/internal/config"
	"github.com/campusdesk/portal/internal/lifecycle"
	"github.com/campusdesk/portal/internal/logger"
	"github.com/campusdesk/portal/internal/messaging"
	"github.com/campusdesk/portal/internal/notify"
	"github.com/campusdesk/portal/internal/presence"
	"github.com/campusdesk/portal/internal/repository"
	"github.com/campusdesk/portal/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.Development()})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	validator, err := auth.NewValidator(cfg.App.JWTSecret)
	if err != nil {
		zlog.Fatalw("jwt validator init", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		requests repository.RequestStore
		msgs     repository.MessageLog
	)
	if cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			zlog.Fatalw("mongo connect", "err", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := client.Ping(ctx, nil); err != nil {
			zlog.Fatalw("mongo ping", "err", err)
		}
		db := client.Database(cfg.Mongo.Database)
		store := repository.NewMongoStore(
			db.Collection(cfg.Mongo.RequestsCollection),
			db.Collection(cfg.Mongo.MessagesCollection),
		)
		if err := store.EnsureIndexes(ctx); err != nil {
			zlog.Fatalw("mongo indexes", "err", err)
		}
		requests, msgs = store, store
	} else {
		zlog.Warn("no mongo uri configured, using in-memory store")
		mem := repository.NewMemoryStore()
		requests, msgs = mem, mem
	}

	var pres *presence.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		pres = presence.NewStore(rdb, cfg.Redis.Prefix)
	}

	var notifier lifecycle.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.TopicLifecycle, zlog)
		defer func() { _ = kn.Close() }()
		notifier = kn
	}

	hub := ws.NewHub(zlog)
	engine := lifecycle.NewEngine(requests, hub, notifier, cfg.RequestTimeout, zlog)
	msgSvc := messaging.NewService(msgs, hub, cfg.RequestTimeout, zlog)

	app := api.NewServer(cfg, engine, msgSvc, hub, pres, validator, zlog)

	errs := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(cfg.App.Port)
		zlog.Infow("starting portal core", "addr", addr, "env", cfg.App.Env)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case e := <-errs:
		zlog.Fatalw("server error", "err", e)
	case s := <-sig:
		zlog.Infow("signal received", "signal", s.String())
	}

	if err := app.Shutdown(); err != nil {
		zlog.Errorw("fiber shutdown", "err", err)
	}
	zlog.Info("shut down")
}
