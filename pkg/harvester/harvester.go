package harvester

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"liscraper/pkg/checkpoint"
	"liscraper/pkg/config"
	"liscraper/pkg/convergence"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/fingerprint"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/retry"
)

// SinkStore creates and reopens sinks in the run's output location.
type SinkStore interface {
	// Create opens a fresh sink with a header row.
	Create() (Sink, error)
	// Open reopens an existing sink by its recorded filename.
	Open(filename string) (Sink, error)
	// Exists reports whether the named sink file is still present.
	Exists(filename string) bool
}

// Progress is a per-iteration snapshot for UI consumers.
type Progress struct {
	Iteration    int
	VisibleItems int
	NewRecords   int
	TotalRecords int
	Stalls       int
	Done         bool
}

// Harvester runs the incremental collection loop against one listing.
type Harvester struct {
	driver   PageDriver
	sinks    SinkStore
	config   *config.Config
	logger   logger.Logger
	progress func(Progress)

	mu   sync.Mutex
	sess *session
}

// New creates a Harvester. The driver and sink store are the run's only
// external collaborators.
func New(driver PageDriver, sinks SinkStore, cfg *config.Config) *Harvester {
	return &Harvester{
		driver: driver,
		sinks:  sinks,
		config: cfg,
		logger: logger.GetLogger(),
	}
}

// OnProgress registers a callback invoked after every iteration and once on
// convergence. Must be set before Run.
func (h *Harvester) OnProgress(fn func(Progress)) {
	h.progress = fn
}

// SaveProgress persists the current in-memory checkpoint. Called by the
// shutdown coordinator; a no-op before the session exists.
func (h *Harvester) SaveProgress() error {
	h.mu.Lock()
	sess := h.sess
	h.mu.Unlock()
	if sess == nil {
		return nil
	}
	return sess.save()
}

// Run collects until the listing converges or the context is cancelled.
// Fatal setup errors save the checkpoint best-effort before returning.
func (h *Harvester) Run(ctx context.Context) error {
	sess, err := h.openSession()
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.sess = sess
	h.mu.Unlock()

	if err := h.openListing(ctx); err != nil {
		if saveErr := sess.save(); saveErr != nil {
			h.logger.WithError(saveErr).Warn("Best-effort checkpoint save failed")
		}
		return err
	}

	h.catchUp(ctx, sess)

	return h.loop(ctx, sess)
}

// openSession loads the checkpoint and binds it to a sink. A checkpoint that
// names a CSV file which no longer exists is stale; the run starts fresh.
func (h *Harvester) openSession() (*session, error) {
	mgr, err := checkpoint.NewManager(h.config.Checkpoint.Path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, "checkpoint store unavailable", err)
	}

	cp, err := mgr.Load()
	if err != nil {
		cp = checkpoint.New()
	}

	var snk Sink
	if cp.CSVFilename != "" {
		if h.sinks.Exists(cp.CSVFilename) {
			opened, err := h.sinks.Open(cp.CSVFilename)
			if err != nil {
				h.logger.WithError(err).WithField("csv_filename", cp.CSVFilename).
					Warn("Failed to reopen sink, starting fresh")
				cp = checkpoint.New()
			} else {
				snk = opened
				h.logger.InfoWithFields("Resuming into existing sink", map[string]interface{}{
					"csv_filename":  cp.CSVFilename,
					"last_index":    cp.LastProfileIndex,
					"processed_ids": cp.ProcessedCount(),
				})
			}
		} else {
			h.logger.WithField("csv_filename", cp.CSVFilename).
				Warn("Checkpoint names a missing sink file, starting fresh")
			cp = checkpoint.New()
		}
	}

	if snk == nil {
		created, err := h.sinks.Create()
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeSinkIO, "failed to create sink", err)
		}
		snk = created
		cp.CSVFilename = snk.Filename()
	}

	sess := newSession(cp, mgr, snk, h.logger)

	// Record the sink binding before collection so a crash between now and
	// the first commit resumes into the same file.
	if err := sess.save(); err != nil {
		h.logger.WithError(err).Warn("Initial checkpoint save failed, continuing in memory")
	}
	return sess, nil
}

// openListing authenticates, navigates to the target listing, and waits for
// the container. Navigation is retried on transient failures; the container
// wait is the run's only bounded timeout and expiry is fatal.
func (h *Harvester) openListing(ctx context.Context) error {
	rcfg := &retry.Config{
		MaxAttempts: h.config.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    h.config.Retry.BaseDelay,
			MaxDelay:     h.config.Retry.MaxDelay,
			Multiplier:   h.config.Retry.Multiplier,
			JitterFactor: h.config.Retry.JitterFactor,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  h.logger,
	}

	if h.config.Credentials.Email != "" {
		if err := h.driver.Login(ctx, h.config.Credentials.Email, h.config.Credentials.Password); err != nil {
			return errs.Wrap(errs.ErrorTypeAuth, "login failed", err)
		}
		h.logger.Info("Logged in")
	}

	if err := retry.Do(func() error {
		if err := h.driver.Navigate(ctx, h.config.Site.TargetURL); err != nil {
			return errs.Wrap(errs.ErrorTypeNavigation, "navigation failed", err)
		}
		return nil
	}, rcfg); err != nil {
		return err
	}

	if err := h.driver.WaitForListing(ctx, h.config.Scroll.ContainerWaitTimeout); err != nil {
		return errs.Wrap(errs.ErrorTypeNavigation, "listing container did not appear", err)
	}

	h.logger.WithField("url", h.config.Site.TargetURL).Info("Listing opened")
	return nil
}

// catchUp re-scrolls a resumed session toward its previous position. The
// listing has no stable cursor, so this is a best-effort heuristic: roughly
// one load-more per ten previously seen items, capped, stopping early once
// the visible count passes the checkpointed index. Scanning proceeds
// regardless of whether realignment succeeded.
func (h *Harvester) catchUp(ctx context.Context, sess *session) {
	last := sess.lastIndex()
	if last <= 0 {
		return
	}

	perLoad := h.config.Scroll.CatchUpItemsPerLoad
	if perLoad <= 0 {
		perLoad = 10
	}
	scrolls := (last + perLoad - 1) / perLoad
	if max := h.config.Scroll.CatchUpMaxScrolls; scrolls > max {
		scrolls = max
	}
	if scrolls <= 0 {
		return
	}

	h.logger.InfoWithFields("Catching up to checkpointed position", map[string]interface{}{
		"last_index":  last,
		"max_scrolls": scrolls,
	})

	for i := 0; i < scrolls; i++ {
		if ctx.Err() != nil {
			return
		}
		count, err := h.driver.ItemCount(ctx)
		if err == nil && count > last {
			h.logger.WithField("visible_items", count).Info("Catch-up realigned")
			return
		}
		if err := h.driver.TriggerLoadMore(ctx); err != nil {
			h.logger.WithError(err).Warn("Catch-up load-more failed")
		}
		h.waitForRender(ctx)
	}
	h.logger.Warn("Catch-up scroll budget exhausted, resuming scan anyway")
}

// loop is the collection loop proper: probe, dedupe, extract, commit,
// scroll, observe convergence.
func (h *Harvester) loop(ctx context.Context, sess *session) error {
	detector := convergence.New(h.config.Scroll.StallThreshold)

	known := 0
	prevHeight := -1.0
	iteration := 0
	commitFailures := 0

	for {
		if err := ctx.Err(); err != nil {
			if saveErr := sess.save(); saveErr != nil {
				h.logger.WithError(saveErr).Warn("Checkpoint save on cancellation failed")
			}
			return err
		}
		iteration++

		count, err := h.driver.ItemCount(ctx)
		if err != nil {
			if saveErr := sess.save(); saveErr != nil {
				h.logger.WithError(saveErr).Warn("Best-effort checkpoint save failed")
			}
			return errs.Wrap(errs.ErrorTypeNavigation, "item count query failed", err)
		}

		delta, probed := h.probeDelta(ctx, sess, known, count)

		var discovered, committed int
		commitFailed := false
		var commitErr error
		if len(delta) > 0 {
			batch := h.extractBatch(ctx, delta)
			survivors := h.filterProcessed(sess, batch)
			discovered = len(survivors)
			if len(survivors) > 0 {
				if err := sess.commit(survivors); err != nil {
					// The batch stays unmarked; holding known back makes the
					// next iteration re-probe and re-extract it.
					commitFailed = true
					commitErr = err
					h.logger.WithError(err).Error("Batch commit failed")
				} else {
					committed = len(survivors)
				}
			}
		}

		// An uncommitted batch keeps getting re-discovered, so a sink that
		// never recovers would retry forever. It gets the same attempt budget
		// as transient navigation; exceeding it ends the run with the
		// checkpoint intact.
		if commitFailed {
			commitFailures++
			if max := h.config.Retry.MaxAttempts; max > 0 && commitFailures >= max {
				h.logger.WithField("failures", commitFailures).Error("Sink keeps rejecting batches, giving up")
				if saveErr := sess.save(); saveErr != nil {
					h.logger.WithError(saveErr).Warn("Best-effort checkpoint save failed")
				}
				return commitErr
			}
		} else {
			commitFailures = 0
		}

		h.logger.InfoWithFields("Iteration complete", map[string]interface{}{
			"iteration":     iteration,
			"visible_items": count,
			"new_records":   committed,
			"processed_ids": sess.processedCount(),
		})

		if err := h.driver.TriggerLoadMore(ctx); err != nil {
			h.logger.WithError(err).Warn("Load-more failed")
		}
		h.waitForRender(ctx)

		height, err := h.driver.Height(ctx)
		if err != nil {
			h.logger.WithError(err).Warn("Height query failed")
			height = prevHeight
		}
		heightChanged := prevHeight < 0 || height != prevHeight

		if probed && !commitFailed {
			known = count
		}
		prevHeight = height

		// The detector sees what was discovered, not what was committed: a
		// failing sink must not be mistaken for an exhausted listing.
		state := detector.Observe(heightChanged, discovered)
		if h.progress != nil {
			h.progress(Progress{
				Iteration:    iteration,
				VisibleItems: count,
				NewRecords:   committed,
				TotalRecords: sess.processedCount(),
				Stalls:       detector.Stalls(),
				Done:         state == convergence.StateDone,
			})
		}
		if state == convergence.StateDone {
			break
		} else if state == convergence.StateStalled {
			h.logger.WithField("stalls", detector.Stalls()).Debug("Listing stalled")
		}
	}

	h.logger.InfoWithFields("Listing converged, harvest complete", map[string]interface{}{
		"records":    sess.processedCount(),
		"csv":        sess.sink.Filename(),
		"last_index": sess.lastIndex(),
	})

	if err := sess.clear(); err != nil {
		h.logger.WithError(err).Warn("Checkpoint cleanup failed")
	}
	return nil
}

// probeDelta queries the lightweight fingerprints of items past the locally
// known count and returns the indices worth extracting: anything beyond the
// checkpointed index or with an unseen fingerprint. The boolean reports
// whether the probe succeeded; on failure the caller keeps its known count
// so the indices are re-probed next iteration.
func (h *Harvester) probeDelta(ctx context.Context, sess *session, known, count int) ([]int, bool) {
	if count <= known {
		return nil, true
	}

	probes, err := h.driver.ProbeItems(ctx, known)
	if err != nil {
		h.logger.WithError(err).Warn("Item probe failed, will retry next iteration")
		return nil, false
	}

	last := sess.lastIndex()
	var delta []int
	for i, raw := range probes {
		index := known + i
		fp := fingerprint.ForRaw(raw)
		if index > last || !sess.isProcessed(fp) {
			delta = append(delta, index)
		}
	}
	return delta, true
}

// filterProcessed is the second dedupe pass, defending against probe races
// and duplicates within the batch itself.
func (h *Harvester) filterProcessed(sess *session, batch []models.TaggedRecord) []models.TaggedRecord {
	inBatch := make(map[string]struct{}, len(batch))
	survivors := make([]models.TaggedRecord, 0, len(batch))
	for _, t := range batch {
		if sess.isProcessed(t.Fingerprint) {
			continue
		}
		if _, dup := inBatch[t.Fingerprint]; dup {
			continue
		}
		inBatch[t.Fingerprint] = struct{}{}
		survivors = append(survivors, t)
	}
	return survivors
}

// waitForRender sleeps the configured delay plus random jitter so the
// listing's asynchronous rendering can settle after a scroll.
func (h *Harvester) waitForRender(ctx context.Context) {
	d := h.config.Scroll.Delay
	if j := h.config.Scroll.Jitter; j > 0 {
		d += time.Duration(rand.Int63n(int64(j)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
