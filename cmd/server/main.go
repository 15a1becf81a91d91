package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/streamsync/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	store = configVar[string]{
		envKey:       "SERVER_STORE",
		flagKey:      "store",
		defaultValue: app.StoreMemory,
	}
	syncDelay = configVar[time.Duration]{
		envKey:       "SERVER_SYNC_DELAY",
		flagKey:      "sync-delay",
		defaultValue: 2 * time.Second,
	}
	autoplayDelay = configVar[time.Duration]{
		envKey:       "SERVER_AUTOPLAY_DELAY",
		flagKey:      "autoplay-delay",
		defaultValue: 1500 * time.Millisecond,
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 0,
	}
	queueLimit = configVar[int]{
		envKey:       "SERVER_QUEUE_LIMIT",
		flagKey:      "queue-limit",
		defaultValue: 0,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(store.flagKey, store.defaultValue, "Room store backend (memory or redis)")
	pflag.Duration(syncDelay.flagKey, syncDelay.defaultValue, "Delay between late-joiner load and play/pause")
	pflag.Duration(autoplayDelay.flagKey, autoplayDelay.defaultValue, "Delay between queue load and autoplay")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in a room, 0 for unlimited")
	pflag.Int(queueLimit.flagKey, queueLimit.defaultValue, "Maximum number of videos in a queue, 0 for unlimited")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(store.flagKey, store.envKey)
	viper.BindEnv(syncDelay.flagKey, syncDelay.envKey)
	viper.BindEnv(autoplayDelay.flagKey, autoplayDelay.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(queueLimit.flagKey, queueLimit.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(store.flagKey, store.defaultValue)
	viper.SetDefault(syncDelay.flagKey, syncDelay.defaultValue)
	viper.SetDefault(autoplayDelay.flagKey, autoplayDelay.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(queueLimit.flagKey, queueLimit.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	return &app.AppConfig{
		Host:          viper.GetString(host.flagKey),
		Port:          viper.GetInt(port.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		Store:         viper.GetString(store.flagKey),
		SyncDelay:     viper.GetDuration(syncDelay.flagKey),
		AutoplayDelay: viper.GetDuration(autoplayDelay.flagKey),
		MembersLimit:  viper.GetInt(membersLimit.flagKey),
		QueueLimit:    viper.GetInt(queueLimit.flagKey),
		RedisHost:     viper.GetString(redisHost.flagKey),
		RedisPort:     viper.GetInt(redisPort.flagKey),
		RedisPassword: viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
