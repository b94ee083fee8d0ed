package harvester

import (
	"context"
	"time"

	"liscraper/pkg/models"
)

// PageDriver is the capability set the loop needs from a browser session.
// Implementations own all markup specifics; the loop only ever sees counts,
// raw items and page height.
type PageDriver interface {
	// Navigate opens the target listing URL.
	Navigate(ctx context.Context, url string) error

	// Login authenticates the session. Implementations may no-op when the
	// listing is public.
	Login(ctx context.Context, email, password string) error

	// WaitForListing blocks until the listing container renders, or fails
	// after the timeout. This is the run's only bounded wait; expiry is fatal.
	WaitForListing(ctx context.Context, timeout time.Duration) error

	// ItemCount returns the number of currently visible items.
	ItemCount(ctx context.Context) (int, error)

	// ProbeItems returns the fingerprint-relevant fields of the items at
	// indices from..count-1, in index order. A lightweight query, not a full
	// extraction.
	ProbeItems(ctx context.Context, from int) ([]models.RawItem, error)

	// ExtractItem fully extracts the item at the given index.
	ExtractItem(ctx context.Context, index int) (models.RawItem, error)

	// TriggerLoadMore scrolls to the bottom so the listing appends more items.
	TriggerLoadMore(ctx context.Context) error

	// Height returns the page's current measured height.
	Height(ctx context.Context) (float64, error)
}

// Sink is the durable output destination for committed records.
type Sink interface {
	// Filename identifies the sink's backing file, recorded in the checkpoint.
	Filename() string

	// Append durably writes the batch. An error means nothing in the batch
	// may be considered committed.
	Append(records []models.Record) error
}
