package checkpoint

// MaxProcessedIDs bounds the persisted fingerprint set. Older entries are
// evicted first; an evicted profile rediscovered later is re-appended to the
// sink, which is the accepted cost of keeping the checkpoint small.
const MaxProcessedIDs = 1000

// Checkpoint is the persisted progress of one collection run.
type Checkpoint struct {
	LastProfileIndex    int      `json:"lastProfileIndex"`
	CSVFilename         string   `json:"csvFilename"`
	ProcessedProfileIDs []string `json:"processedProfileIds"`

	seen map[string]struct{}
}

// New returns the zero-value checkpoint used when no file exists yet.
func New() *Checkpoint {
	return &Checkpoint{
		LastProfileIndex:    -1,
		ProcessedProfileIDs: []string{},
		seen:                make(map[string]struct{}),
	}
}

// IsProcessed reports whether the fingerprint has already been committed.
func (c *Checkpoint) IsProcessed(fp string) bool {
	_, ok := c.seen[fp]
	return ok
}

// MarkProcessed appends fingerprints to the ordered set, skipping ones
// already present. Call this only after the matching records were durably
// appended to the sink; the caller owns that ordering.
func (c *Checkpoint) MarkProcessed(fps ...string) {
	for _, fp := range fps {
		if _, ok := c.seen[fp]; ok {
			continue
		}
		c.seen[fp] = struct{}{}
		c.ProcessedProfileIDs = append(c.ProcessedProfileIDs, fp)
	}
}

// AdvanceIndex raises the last-seen listing index. The index only grows
// within a run; stale values are ignored.
func (c *Checkpoint) AdvanceIndex(index int) {
	if index > c.LastProfileIndex {
		c.LastProfileIndex = index
	}
}

// ProcessedCount returns the size of the in-memory fingerprint set.
func (c *Checkpoint) ProcessedCount() int {
	return len(c.ProcessedProfileIDs)
}

// truncate drops the oldest entries so at most limit fingerprints remain.
func (c *Checkpoint) truncate(limit int) {
	if len(c.ProcessedProfileIDs) <= limit {
		return
	}
	evicted := c.ProcessedProfileIDs[:len(c.ProcessedProfileIDs)-limit]
	for _, fp := range evicted {
		delete(c.seen, fp)
	}
	kept := make([]string, limit)
	copy(kept, c.ProcessedProfileIDs[len(c.ProcessedProfileIDs)-limit:])
	c.ProcessedProfileIDs = kept
}

// reindex rebuilds the lookup map from the ordered slice after a load.
func (c *Checkpoint) reindex() {
	c.seen = make(map[string]struct{}, len(c.ProcessedProfileIDs))
	for _, fp := range c.ProcessedProfileIDs {
		c.seen[fp] = struct{}{}
	}
}
