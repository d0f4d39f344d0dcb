package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ballotworks/roleboard/internal/tagcache"
)

// ExpiryStore flips stored activity flags for assignments past their expiry.
type ExpiryStore interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryHandler processes TaskTypeExpireAssignments tasks. Readers already
// treat past-expiry assignments as inactive; this sweep only converges the
// stored flag and tells cached readers to refresh.
type ExpiryHandler struct {
	Logger  *slog.Logger
	Store   ExpiryStore
	Cache   *tagcache.Coordinator
	Metrics *Metrics
}

// HandleExpireDue runs one sweep.
func (h *ExpiryHandler) HandleExpireDue(ctx context.Context, t *asynq.Task) (err error) {
	tracker := h.Metrics.Track(TaskTypeExpireAssignments)
	defer func() { tracker.Done(err) }()

	var payload ExpireAssignmentsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	cutoff := payload.Cutoff
	if cutoff.IsZero() {
		cutoff = time.Now().UTC()
	}
	flipped, err := h.Store.ExpireDue(ctx, cutoff)
	if err != nil {
		return err
	}
	if flipped > 0 {
		h.Logger.Info("expired assignments swept", slog.Int64("count", flipped))
		h.Metrics.ObserveSwept(TaskTypeExpireAssignments, flipped)
		_ = h.Cache.Invalidate(ctx, tagcache.TagAssignment)
	}
	return nil
}
