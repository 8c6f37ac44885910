package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerwatch/tickerwatch/config"
)

func TestBuildServicesWiresFullGraph(t *testing.T) {
	cfg := &config.AppConfig{Services: "http,scheduler"}
	cfg.Sanitize()

	services := BuildServices(ServiceDeps{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	require.NotNil(t, services)
	assert.NotNil(t, services.Scheduler)
	assert.NotNil(t, services.Ingest)
	assert.NotNil(t, services.Scrape)
	assert.NotNil(t, services.Registry)
	assert.NotNil(t, services.Cache)
}

func TestValidateServiceConfig(t *testing.T) {
	valid := &config.AppConfig{Services: "http,scheduler"}
	require.NoError(t, ValidateServiceConfig(valid))

	invalid := &config.AppConfig{Services: "http,worker"}
	assert.Error(t, ValidateServiceConfig(invalid))

	assert.Error(t, ValidateServiceConfig(nil))
}
