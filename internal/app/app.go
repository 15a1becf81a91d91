package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/streamsync/server/internal/controller"
	roomrepo "github.com/streamsync/server/internal/repository/room"
	roominmemory "github.com/streamsync/server/internal/repository/room/inmemory"
	roomredis "github.com/streamsync/server/internal/repository/room/redis"
	sessioninmemory "github.com/streamsync/server/internal/repository/session/inmemory"
	"github.com/streamsync/server/internal/repository/wssender"
	"github.com/streamsync/server/internal/service/room"
	"github.com/streamsync/server/pkg/ctxlogger"
	"github.com/streamsync/server/pkg/redisclient"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// roomTTL caps how long an abandoned room key may linger in redis.
const roomTTL = 24 * time.Hour

type AppConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	Store         string        `json:"store"`
	SyncDelay     time.Duration `json:"sync_delay"`
	AutoplayDelay time.Duration `json:"autoplay_delay"`
	MembersLimit  int           `json:"members_limit"`
	QueueLimit    int           `json:"queue_limit"`
	RedisHost     string        `json:"redis_host"`
	RedisPort     int           `json:"redis_port"`
	RedisPassword string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Store != StoreMemory && cfg.Store != StoreRedis {
		return fmt.Errorf("store must be %q or %q", StoreMemory, StoreRedis)
	}
	if cfg.SyncDelay < 0 {
		return fmt.Errorf("sync delay must not be negative")
	}
	if cfg.AutoplayDelay < 0 {
		return fmt.Errorf("autoplay delay must not be negative")
	}
	if cfg.MembersLimit < 0 {
		return fmt.Errorf("members limit must not be negative")
	}
	if cfg.QueueLimit < 0 {
		return fmt.Errorf("queue limit must not be negative")
	}

	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	logger := slog.New(&h)

	var roomRepo roomrepo.Store
	switch cfg.Store {
	case StoreRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		roomRepo = roomredis.NewRepo(rc, roomTTL)
	default:
		roomRepo = roominmemory.NewRepo()
	}

	sessionRepo := sessioninmemory.NewRepo()
	sender := wssender.NewRepo(logger)
	roomService := room.NewService(roomRepo, sessionRepo, sender, logger, &room.Config{
		SyncDelay:     cfg.SyncDelay,
		AutoplayDelay: cfg.AutoplayDelay,
		MembersLimit:  cfg.MembersLimit,
		QueueLimit:    cfg.QueueLimit,
	})
	c := controller.NewController(roomService, logger)

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: c.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "store", cfg.Store)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
