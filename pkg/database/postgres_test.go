package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/algosim/pkg/config"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), testConfig("invalid://url"))
	assert.Error(t, err)
}

func TestNew_EmptyURL(t *testing.T) {
	_, err := New(context.Background(), testConfig(""))
	assert.Error(t, err)
}

func TestNew_Integration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, testConfig(url))
	require.NoError(t, err)
	defer db.Close()

	status := db.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(4), status.MaxConns)

	// double close should not panic
	db.Close()
}
