package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/openreferee/server/internal/domain/events"
	"github.com/openreferee/server/internal/hub"
	"github.com/openreferee/server/internal/metrics"
)

// DefaultPollInterval is the fixed delay between visibility polls.
const DefaultPollInterval = 5 * time.Second

// RevisionPollArgs is the immutable snapshot a poll job carries: everything
// the worker needs except the bearer token, which is re-read from the store
// so that deleting the event cancels its in-flight polls.
type RevisionPollArgs struct {
	EventID      string           `json:"event_id"`
	ContribID    string           `json:"contrib_id"`
	EditableType string           `json:"editable_type"`
	Files        []events.File    `json:"files"`
	Endpoints    events.Endpoints `json:"endpoints"`
}

func (RevisionPollArgs) Kind() string { return JobKindRevisionPoll }

func (RevisionPollArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: RevisionPollMaxAttempts}
}

// RevisionPollWorker retries a hub revision-details call until the revision
// the hub just announced becomes visible, then hands the files to the
// processing collaborator. The hub's details endpoint lags the webhook, so
// the first polls routinely come back 404.
type RevisionPollWorker struct {
	river.WorkerDefaults[RevisionPollArgs]

	Repo     events.Repository
	Ops      events.Operations
	Sessions events.SessionFactory
	Interval time.Duration
	Logger   zerolog.Logger
}

func (w *RevisionPollWorker) Work(ctx context.Context, job *river.Job[RevisionPollArgs]) error {
	args := job.Args

	event, err := w.Repo.Get(ctx, args.EventID)
	if errors.Is(err, events.ErrNotFound) {
		// Event deleted while the poll was pending.
		metrics.RevisionPollsTotal.WithLabelValues("orphaned").Inc()
		w.Logger.Warn().
			Str("event", args.EventID).
			Str("contribution", args.ContribID).
			Msg("cancelling poll for deleted event")
		return river.JobCancel(err)
	}
	if err != nil {
		return err
	}

	detailsURL, err := args.Endpoints.URL("revisions", "details")
	if err != nil {
		// A missing endpoint key never heals; retrying is pointless.
		return river.JobCancel(err)
	}

	session := w.Sessions(event.Token)
	_, err = session.Get(ctx, detailsURL)
	switch {
	case err == nil:
	case hub.IsStatus(err, http.StatusNotFound):
		metrics.RevisionPollsTotal.WithLabelValues("pending").Inc()
		w.Logger.Debug().
			Str("event", event.Identifier).
			Str("contribution", args.ContribID).
			Int("attempt", job.Attempt).
			Msg("revision not yet visible")
		return river.JobSnooze(w.interval())
	default:
		metrics.RevisionPollsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("poll revision details: %w", err)
	}

	metrics.RevisionPollsTotal.WithLabelValues("ready").Inc()
	w.Logger.Info().
		Str("event", event.Identifier).
		Str("contribution", args.ContribID).
		Str("editable_type", args.EditableType).
		Int("files", len(args.Files)).
		Msg("revision visible, processing files")

	if err := w.Ops.ProcessEditableFiles(ctx, session, event, args.Files, args.Endpoints); err != nil {
		// The collaborator runs at most once per revision; a retry would
		// invoke it again, so surface the failure and stop.
		return river.JobCancel(fmt.Errorf("process editable files: %w", err))
	}
	return nil
}

func (w *RevisionPollWorker) interval() time.Duration {
	if w.Interval > 0 {
		return w.Interval
	}
	return DefaultPollInterval
}

// NewWorkers registers every worker this service runs.
func NewWorkers(repo events.Repository, ops events.Operations, sessions events.SessionFactory, interval time.Duration, logger zerolog.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker[RevisionPollArgs](workers, &RevisionPollWorker{
		Repo:     repo,
		Ops:      ops,
		Sessions: sessions,
		Interval: interval,
		Logger:   logger,
	})
	return workers
}
