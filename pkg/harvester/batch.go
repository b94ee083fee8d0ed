package harvester

import (
	"context"
	"fmt"

	"liscraper/pkg/fingerprint"
	"liscraper/pkg/models"
)

// extractBatch materializes the items at the given indices, one tagged record
// per index, always. A per-item failure never aborts the batch: the failed
// slot gets a placeholder record with a synthetic error name and the batch
// moves on.
func (h *Harvester) extractBatch(ctx context.Context, indices []int) []models.TaggedRecord {
	out := make([]models.TaggedRecord, 0, len(indices))
	for _, index := range indices {
		record := h.extractOne(ctx, index)
		out = append(out, models.TaggedRecord{
			Index:       index,
			Fingerprint: fingerprint.ForRecord(record),
			Record:      record,
		})
	}
	return out
}

// extractOne extracts a single item, recovering driver errors and panics
// into the placeholder record.
func (h *Harvester) extractOne(ctx context.Context, index int) (record models.Record) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.WarnWithFields("Extraction panicked, using placeholder", map[string]interface{}{
				"index": index,
				"panic": fmt.Sprintf("%v", r),
			})
			record = models.PlaceholderRecord(index)
		}
	}()

	raw, err := h.driver.ExtractItem(ctx, index)
	if err != nil {
		h.logger.WarnWithFields("Extraction failed, using placeholder", map[string]interface{}{
			"index": index,
			"error": err.Error(),
		})
		return models.PlaceholderRecord(index)
	}
	return models.FromRaw(raw)
}
