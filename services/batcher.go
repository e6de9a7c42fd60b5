package services

import (
	"fmt"

	"villa-importer/models"
)

// PartitionIntoBatches splits records into consecutive batches of at most
// maxBatchSize, preserving order. N records yield ceil(N/maxBatchSize)
// batches; no records yield none.
func PartitionIntoBatches(records []models.ListingRecord, maxBatchSize int) ([]models.Batch, error) {
	if maxBatchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", maxBatchSize)
	}

	batches := make([]models.Batch, 0, (len(records)+maxBatchSize-1)/maxBatchSize)
	for i := 0; i < len(records); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, models.Batch{
			Index:   len(batches),
			Records: records[i:end:end],
		})
	}
	return batches, nil
}
