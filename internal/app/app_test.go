package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Host:          "0.0.0.0",
		Port:          8080,
		LogLevel:      "INFO",
		Store:         StoreMemory,
		SyncDelay:     2 * time.Second,
		AutoplayDelay: 1500 * time.Millisecond,
	}
}

func TestAppConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Store = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.SyncDelay = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.AutoplayDelay = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.MembersLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.QueueLimit = -1
	assert.Error(t, cfg.Validate())
}
