package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewei/SentimentRadar/pkg/config"
	"github.com/dewei/SentimentRadar/pkg/model"
	"github.com/dewei/SentimentRadar/pkg/repository"
)

func TestNewWithMemoryStore(t *testing.T) {
	cfg := config.Default()
	cfg.DataSources.ConceptCachePath = ""
	cfg.DataSources.AKShare.BaseURL = ""

	a, err := New(context.Background(), cfg, Options{
		MemoryStore: true,
		Messaging:   true,
		Analyzer:    true,
		Registerer:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &repository.MemoryStore{}, a.Store)
	assert.Nil(t, a.NATS)
	assert.NotNil(t, a.Analyzer)
	assert.NotNil(t, a.Pipeline)
	assert.True(t, a.Monitor.Healthy())

	// 无快照时返回默认阶段
	rec, err := a.Service.ClassifyEmotionStage(context.Background(), "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, model.StageIce, rec.Stage)
	assert.True(t, rec.InsufficientData)
}

func TestNewDegradesWithoutRedis(t *testing.T) {
	cfg := config.Default()
	cfg.DataSources.ConceptCachePath = ""
	cfg.DataSources.AKShare.BaseURL = ""
	cfg.Redis.Addr = "127.0.0.1:1"

	a, err := New(context.Background(), cfg, Options{MemoryStore: true})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Stages)
	assert.Equal(t, "degraded", a.Monitor.GetStatus("redis").Status)
	assert.True(t, a.Monitor.Healthy())
}
