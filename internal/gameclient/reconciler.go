package gameclient

import (
	"context"
	"sync"

	"modleapp/internal/api"
	"modleapp/internal/models"
	"modleapp/internal/observability"
	contextutils "modleapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// UpdateState names a position in the optimistic update lifecycle.
type UpdateState string

const (
	// UpdateOptimistic means the local view was mutated but the
	// authoritative store has not confirmed yet
	UpdateOptimistic UpdateState = "optimistic"
	// UpdateReconciled means the authoritative store accepted the write and
	// the local view now reflects the re-read server state
	UpdateReconciled UpdateState = "reconciled"
	// UpdateRolledBack means the write was refused or failed and the local
	// view was restored
	UpdateRolledBack UpdateState = "rolled_back"
)

// Backend is the slice of the client API the reconciler drives.
type Backend interface {
	SubmitResult(ctx context.Context, req api.ResultRequest) (*api.ResultResponse, error)
	GetStatus(ctx context.Context, language models.Language) (*api.StatusResponse, error)
}

// Update describes one pass through the protocol. Local always holds the
// global view the caller should render; Language holds the authoritative view
// for the played language after a reconciled write; Result is the server
// verdict when one was received.
type Update struct {
	State    UpdateState
	Local    *api.StatusResponse
	Language *api.StatusResponse
	Result   *api.ResultResponse
}

// Reconciler keeps a local global-scope status view and settles every
// reported result against the authoritative store: mutate locally, write,
// re-read, then either adopt the server state or restore the snapshot.
// Safe for concurrent use.
type Reconciler struct {
	backend Backend
	logger  *observability.Logger

	mu     sync.Mutex
	status *api.StatusResponse
}

// NewReconciler creates a reconciler with an empty local view. Call Refresh
// before rendering status.
func NewReconciler(backend Backend, logger *observability.Logger) *Reconciler {
	return &Reconciler{
		backend: backend,
		logger:  logger,
		status: &api.StatusResponse{
			History: map[string]api.HistoryEntry{},
			Scope:   string(api.StatusScopeGlobal),
		},
	}
}

// Refresh replaces the local view with the authoritative global status.
func (r *Reconciler) Refresh(ctx context.Context) (result0 *api.StatusResponse, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "refresh")
	defer observability.FinishSpan(span, &err)

	status, err := r.backend.GetStatus(ctx, "")
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.status = status
	r.mu.Unlock()

	return copyStatus(status), nil
}

// Status returns a copy of the current local view.
func (r *Reconciler) Status() *api.StatusResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyStatus(r.status)
}

// Report runs the full protocol for one closed day. The returned Update is
// non-nil even on error so callers can render the settled local view; the
// error carries the gate refusal or transport failure that caused a rollback.
func (r *Reconciler) Report(ctx context.Context, req api.ResultRequest) (result0 *Update, err error) {
	ctx, span := observability.TraceClientFunction(ctx, "report",
		attribute.String("result.language", string(req.Language)),
		attribute.Bool("result.correct", req.Correct))
	defer observability.FinishSpan(span, &err)

	date := req.Date.Format(contextutils.DateLayout)

	// Optimistic local mutation. The snapshot is what we restore on refusal.
	r.mu.Lock()
	snapshot := copyStatus(r.status)
	guesses := append([]string(nil), req.Guesses...)
	r.status.History[date] = api.HistoryEntry{
		Completed: true,
		Correct:   req.Correct,
		Date:      req.Date,
		Guesses:   &guesses,
		Language:  req.Language,
	}
	if req.Correct {
		r.status.Streak++
	} else {
		r.status.Streak = 0
	}
	optimistic := copyStatus(r.status)
	r.mu.Unlock()

	span.SetAttributes(attribute.String("update.state", string(UpdateOptimistic)))
	if r.logger != nil {
		r.logger.Debug(ctx, "Applied optimistic result", map[string]interface{}{
			"date":     date,
			"language": string(req.Language),
			"correct":  req.Correct,
		})
	}

	resp, submitErr := r.backend.SubmitResult(ctx, req)
	if submitErr != nil {
		update := r.rollBack(ctx, snapshot, resp)
		return update, submitErr
	}

	// The gate refused without an HTTP error: another language already
	// consumed the day. Roll back and surface the server's entry.
	if !resp.Recorded && resp.AlreadyPlayed {
		update := r.rollBack(ctx, snapshot, resp)
		return update, contextutils.ErrAlreadyPlayedToday
	}

	// Authoritative re-read for both the played language and the global
	// scope. The write succeeded, so when a re-read fails the status views
	// carried in the write response settle the local view instead.
	langView, langErr := r.backend.GetStatus(ctx, models.Language(req.Language))
	if langErr != nil {
		if r.logger != nil {
			r.logger.Warn(ctx, "Language status re-read failed after write", map[string]interface{}{
				"language": string(req.Language),
				"error":    langErr.Error(),
			})
		}
		langView = resp.Language
	}

	settled, readErr := r.backend.GetStatus(ctx, "")
	r.mu.Lock()
	switch {
	case readErr == nil:
		r.status = settled
	case resp.Global != nil:
		r.status = resp.Global
	default:
		r.status = optimistic
		r.status.Streak = resp.Streak
		if resp.Entry != nil {
			r.status.History[date] = *resp.Entry
		}
	}
	local := copyStatus(r.status)
	r.mu.Unlock()

	span.SetAttributes(attribute.String("update.state", string(UpdateReconciled)))
	return &Update{State: UpdateReconciled, Local: local, Language: copyStatus(langView), Result: resp}, nil
}

// rollBack restores the snapshot and returns the rolled-back update.
func (r *Reconciler) rollBack(ctx context.Context, snapshot *api.StatusResponse, resp *api.ResultResponse) *Update {
	r.mu.Lock()
	r.status = snapshot
	local := copyStatus(r.status)
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Warn(ctx, "Rolled back optimistic result", map[string]interface{}{
			"streak": local.Streak,
		})
	}
	return &Update{State: UpdateRolledBack, Local: local, Result: resp}
}

func copyStatus(status *api.StatusResponse) *api.StatusResponse {
	if status == nil {
		return nil
	}
	out := &api.StatusResponse{
		History: make(map[string]api.HistoryEntry, len(status.History)),
		Scope:   status.Scope,
		Streak:  status.Streak,
	}
	for date, entry := range status.History {
		out.History[date] = entry
	}
	return out
}
