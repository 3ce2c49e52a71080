package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govnet/internal/platform/config"
)

func TestOpenStores_InMemoryWithoutDSN(t *testing.T) {
	st, err := openStores(context.Background(), config.DatabaseConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Nil(t, st.db)

	count, err := st.stewards.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, st.Close())
}

func TestConfigFrom_MissingValue(t *testing.T) {
	assert.Equal(t, config.Config{}, configFrom(context.Background()))
}
