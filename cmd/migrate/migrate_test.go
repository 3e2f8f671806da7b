package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet1stop-platform/internal/migration"
	"vet1stop-platform/models"
)

func TestDecodeSeed(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	input := `[
		{"title": "Vet Center", "tags": ["ptsd"], "dateAdded": "2025-05-01T00:00:00Z"},
		{"title": "Legion Post 12", "category": "health"}
	]`

	records, err := decodeSeed(strings.NewReader(input), models.CategoryUndefined, now)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.CategoryUndefined, records[1].Category, "target partition wins over file category")
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), records[0].DateAdded)
	assert.Equal(t, now, records[1].DateAdded)
	assert.Equal(t, now, records[0].CreatedAt)
	assert.True(t, records[0].ID.IsZero())
}

func TestDecodeSeed_Rejects(t *testing.T) {
	_, err := decodeSeed(strings.NewReader(`{"title": "not an array"}`), models.CategoryUndefined, time.Now())
	assert.Error(t, err)

	_, err = decodeSeed(strings.NewReader(`[{"description": "untitled"}]`), models.CategoryUndefined, time.Now())
	assert.ErrorContains(t, err, "no title")
}

func TestWriteCounts(t *testing.T) {
	counts := []migration.PartitionCount{
		{Category: models.CategoryHealth, Partition: "healthResources", Count: 12},
		{Category: models.CategoryUndefined, Partition: "undefinedResources", Count: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCounts(&buf, counts, "text"))
	out := buf.String()
	assert.Contains(t, out, "healthResources")
	assert.Regexp(t, `total\s+15`, out)

	buf.Reset()
	require.NoError(t, writeCounts(&buf, counts, "json"))
	assert.Contains(t, buf.String(), `"partition": "undefinedResources"`)
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("text"))
	assert.NoError(t, validateFormat("json"))
	assert.Error(t, validateFormat("xml"))
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"reclassify", "verify", "enqueue", "seed"})

	flag := reclassifyCmd.Flags().Lookup("dry-run")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
