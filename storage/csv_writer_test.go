package storage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villa-importer/models"
)

func TestCSVReportWriterWritesOneRowPerBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.csv")

	w, err := NewCSVReportWriter(path)
	require.NoError(t, err)

	summary := &models.ImportSummary{
		RunID:      "run-1",
		Collection: "villas",
		Results: []models.BatchResult{
			{Index: 0, Size: 2, IDs: []string{"v1", "v2"}, Duration: 15 * time.Millisecond},
			{Index: 1, Size: 1, IDs: []string{"v3"}, Err: errors.New("quota exceeded")},
		},
	}
	require.NoError(t, w.WriteSummary(summary))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "run_id", rows[0][0])
	assert.Equal(t, []string{"run-1", "villas", "0", "2", "committed", "v1", "v2", "15", ""}, rows[1])
	assert.Equal(t, []string{"run-1", "villas", "1", "1", "failed", "v3", "v3", "0", "quota exceeded"}, rows[2])
}
