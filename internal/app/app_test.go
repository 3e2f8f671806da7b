package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet1stop-platform/internal/config"
	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/repository"
	"vet1stop-platform/models"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverMemory, ResourcesCollection: "resources"}
	s, err := Open(cfg, slog.Default(), nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Partitions.Partition(models.CategoryJobs).InsertOne(ctx, &models.Resource{Title: "Hire Heroes", Category: models.CategoryJobs})
	require.NoError(t, err)

	got, err := s.Query.Find(ctx, filter.MatchAll(), repository.FindOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hire Heroes", got[0].Title)

	require.NotNil(t, s.Counts)
	assert.NoError(t, s.Ping(ctx))
}

func TestCategorizer(t *testing.T) {
	c, err := Categorizer(&config.Config{}, slog.Default())
	require.NoError(t, err)
	assert.Len(t, c.Rules(), 7)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: social\n    keywords: [reunion]\n"), 0o600))

	c, err = Categorizer(&config.Config{CategoryRulesFile: path}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, models.CategorySocial, c.Categorize("Unit reunion 2026"))
}
