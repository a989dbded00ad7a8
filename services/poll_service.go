// services/poll_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/database"
	"github.com/bathywatch/backend/fetchers"
	"github.com/bathywatch/backend/models"
	"github.com/bathywatch/backend/notifier"
)

// DetectNew returns the records strictly newer than since. When since is nil
// the box has never been checked; we return nothing and let the marker
// advance, so a freshly created box is not flooded with thousands of
// historical surveys. Reporting starts with the next cycle.
func DetectNew(records []models.DatasetRecord, since *time.Time) []models.DatasetRecord {
	if since == nil {
		return nil
	}
	var fresh []models.DatasetRecord
	for _, r := range records {
		if r.Timestamp.After(*since) {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

// PollStore is the slice of persistence the cycle needs. The database
// package satisfies it in production; tests substitute an in-memory fake.
type PollStore interface {
	GetAllBBoxes() ([]models.BoundingBox, error)
	GetUserByID(id int64) (models.User, error)
	UpdateBBoxLastChecked(id int64, checkedAt time.Time) error
	LogNotificationEvent(event models.NotificationEvent) error
}

// FetchFunc matches fetchers.Fetch.
type FetchFunc func(ctx context.Context, source models.SourceType, bbox models.BoundingBox, since *time.Time) ([]models.DatasetRecord, error)

// CycleStats summarizes one poll cycle for operational logging.
type CycleStats struct {
	BoxesChecked int
	BoxesFailed  int
	Notified     int
}

// CycleRunner executes one poll cycle: for every active box, query its
// selected sources, detect new records, notify the owner, and advance the
// last_checked_at marker only after the whole check succeeded. Checks are
// at-least-once: a crash between notify and marker update means a duplicate
// next cycle, never a lost notification.
type CycleRunner struct {
	Store    PollStore
	Fetch    FetchFunc
	Notifier notifier.Notifier
	Timeout  time.Duration // per upstream call
	Now      func() time.Time
}

// NewCycleRunner wires the production dependencies.
func NewCycleRunner(n notifier.Notifier) *CycleRunner {
	return &CycleRunner{
		Store:    dbPollStore{},
		Fetch:    fetchers.Fetch,
		Notifier: n,
		Timeout:  config.AppConfig.Worker.FetchTimeout,
		Now:      time.Now,
	}
}

// Run walks every active box once. Per-box failures are isolated and
// counted; only a store failure listing the boxes aborts the cycle.
func (r *CycleRunner) Run(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	bboxes, err := r.Store.GetAllBBoxes()
	if err != nil {
		return stats, fmt.Errorf("cycle aborted, cannot list bounding boxes: %w", err)
	}
	log.Printf("Worker: Starting poll cycle over %d bounding boxes.\n", len(bboxes))

	for _, bbox := range bboxes {
		if ctx.Err() != nil {
			// Interrupted cycle: unchecked boxes are simply retried whole on
			// the next invocation.
			log.Printf("Worker: Cycle interrupted, %d boxes left unchecked.\n",
				len(bboxes)-stats.BoxesChecked-stats.BoxesFailed)
			break
		}

		notified, err := r.checkBox(ctx, bbox)
		if err != nil {
			stats.BoxesFailed++
			log.Printf("ERROR Worker: Check failed for bbox %d: %v\n", bbox.ID, err)
			continue
		}
		stats.BoxesChecked++
		if notified {
			stats.Notified++
		}
	}

	log.Printf("Worker: Poll cycle done. checked=%d failed=%d notified=%d\n",
		stats.BoxesChecked, stats.BoxesFailed, stats.Notified)
	return stats, nil
}

// checkBox runs the per-box state machine: query sources, detect new,
// notify if needed, then mark checked. It reports whether a notification was
// sent. On any error the marker is left untouched so the same window is
// retried next cycle.
func (r *CycleRunner) checkBox(ctx context.Context, bbox models.BoundingBox) (bool, error) {
	checkedAt := r.Now().UTC()

	sources := bbox.DataTypes
	if len(sources) == 0 {
		sources = []models.SourceType{models.SourceMBES}
	}

	var newRecords []models.DatasetRecord
	for _, source := range sources {
		records, err := r.fetchSource(ctx, source, bbox)
		if errors.Is(err, fetchers.ErrSchemaMismatch) {
			// Skip just this source for this box this cycle; the other
			// sources still get checked.
			log.Printf("WARN Worker: Schema mismatch for %s on bbox %d, skipping source: %v\n",
				source, bbox.ID, err)
			continue
		}
		if err != nil {
			return false, err
		}
		newRecords = append(newRecords, DetectNew(records, bbox.LastCheckedAt)...)
	}

	if len(newRecords) == 0 {
		// Nothing new (or first-ever check): just advance the marker.
		if err := r.Store.UpdateBBoxLastChecked(bbox.ID, checkedAt); err != nil {
			return false, err
		}
		return false, nil
	}

	owner, err := r.Store.GetUserByID(bbox.OwnerID)
	if err != nil {
		return false, fmt.Errorf("failed to load owner %d: %w", bbox.OwnerID, err)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	notifyErr := r.Notifier.Notify(notifyCtx, owner, bbox, newRecords)

	event := models.NotificationEvent{
		BBoxID:      bbox.ID,
		OwnerID:     owner.ID,
		Channel:     bbox.Channel,
		Sources:     models.JoinDataTypes(recordSources(newRecords)),
		RecordCount: len(newRecords),
		Outcome:     models.NotificationSent,
	}
	if notifyErr != nil {
		event.Outcome = models.NotificationFailed
		event.Detail = notifyErr.Error()
	}
	if logErr := r.Store.LogNotificationEvent(event); logErr != nil {
		// Audit failures must not turn a delivered notification into a retry.
		log.Printf("ERROR Worker: Failed to log notification event for bbox %d: %v\n", bbox.ID, logErr)
	}

	if notifyErr != nil {
		// Delivery failed: leave last_checked_at alone so the next cycle
		// re-detects this same window.
		return false, notifyErr
	}

	if err := r.Store.UpdateBBoxLastChecked(bbox.ID, checkedAt); err != nil {
		// Notification went out but the marker did not advance; the next
		// cycle will re-notify. Accepted at-least-once tradeoff.
		return true, err
	}
	return true, nil
}

// fetchSource queries one source with the per-call timeout applied.
func (r *CycleRunner) fetchSource(ctx context.Context, source models.SourceType, bbox models.BoundingBox) ([]models.DatasetRecord, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return r.Fetch(fetchCtx, source, bbox, bbox.LastCheckedAt)
}

// recordSources lists the distinct sources present, in canonical order.
func recordSources(records []models.DatasetRecord) []models.SourceType {
	seen := make(map[models.SourceType]bool)
	for _, r := range records {
		seen[r.Source] = true
	}
	var sources []models.SourceType
	for _, st := range models.AllSources {
		if seen[st] {
			sources = append(sources, st)
		}
	}
	return sources
}

// dbPollStore adapts the database package to the PollStore interface.
type dbPollStore struct{}

func (dbPollStore) GetAllBBoxes() ([]models.BoundingBox, error) {
	return database.GetAllBBoxes()
}

func (dbPollStore) GetUserByID(id int64) (models.User, error) {
	return database.GetUserByID(id)
}

func (dbPollStore) UpdateBBoxLastChecked(id int64, checkedAt time.Time) error {
	return database.UpdateBBoxLastChecked(id, checkedAt)
}

func (dbPollStore) LogNotificationEvent(event models.NotificationEvent) error {
	return database.LogNotificationEvent(event)
}
