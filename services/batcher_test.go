package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villa-importer/models"
)

func makeRecords(n int) []models.ListingRecord {
	out := make([]models.ListingRecord, n)
	for i := range out {
		out[i] = rec(i, fmt.Sprintf("v%d", i), nil)
	}
	return out
}

func TestPartitionCountAndOrder(t *testing.T) {
	for n := 0; n <= 25; n++ {
		for size := 1; size <= 7; size++ {
			records := makeRecords(n)
			batches, err := PartitionIntoBatches(records, size)
			require.NoError(t, err)

			want := (n + size - 1) / size
			require.Len(t, batches, want, "n=%d size=%d", n, size)

			var joined []models.ListingRecord
			for i, b := range batches {
				assert.Equal(t, i, b.Index)
				assert.LessOrEqual(t, len(b.Records), size)
				assert.NotEmpty(t, b.Records)
				joined = append(joined, b.Records...)
			}
			if n == 0 {
				assert.Empty(t, joined)
			} else {
				assert.Equal(t, records, joined, "n=%d size=%d", n, size)
			}
		}
	}
}

func TestPartitionRejectsBadSize(t *testing.T) {
	_, err := PartitionIntoBatches(makeRecords(3), 0)
	assert.Error(t, err)
}

func TestPartitionBatchesDoNotAlias(t *testing.T) {
	batches, err := PartitionIntoBatches(makeRecords(4), 2)
	require.NoError(t, err)

	first := append(batches[0].Records, rec(99, "x", nil))
	assert.Equal(t, "v2", batches[1].Records[0].ID)
	assert.Len(t, first, 3)
}
