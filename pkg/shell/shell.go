// Package shell holds the state a menu widget needs around the built tree:
// whether the menu is loading, failed or ready, the rendered items, and the
// currently selected key.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mchmarny/menutree/pkg/menu"
	"github.com/mchmarny/menutree/pkg/metric"
	"github.com/mchmarny/menutree/pkg/source"
	"github.com/prometheus/client_golang/prometheus"
)

// Status is the load state of the menu.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

const (
	// DefaultSelection is the key selected before the user picks anything.
	DefaultSelection = "HOME"

	// FetchErrorMessage is shown to users when the records cannot be fetched.
	FetchErrorMessage = "failed to fetch menu tree"
)

// ErrNotReady is returned by Ready until a load has succeeded.
var ErrNotReady = errors.New("menu not loaded")

// Snapshot is a consistent copy of the shell state.
type Snapshot struct {
	Status  Status             `json:"status"`
	Error   string             `json:"error,omitempty"`
	Current string             `json:"current"`
	Items   []menu.DisplayItem `json:"items"`
	Report  *menu.Report       `json:"report,omitempty"`
}

// Shell fetches records, builds and renders the tree, and tracks selection.
type Shell struct {
	source  source.Source
	builder *menu.Builder
	metrics *metric.Set

	mu      sync.RWMutex
	status  Status
	errMsg  string
	items   []menu.DisplayItem
	report  *menu.Report
	current string
}

// Option configures a Shell.
type Option func(*Shell)

// WithBuilder sets the tree builder.
func WithBuilder(b *menu.Builder) Option {
	return func(s *Shell) { s.builder = b }
}

// WithMetrics sets the counters the shell reports to.
func WithMetrics(m *metric.Set) Option {
	return func(s *Shell) { s.metrics = m }
}

// New returns a Shell in the loading state.
func New(src source.Source, opts ...Option) *Shell {
	s := &Shell{
		source:  src,
		builder: menu.NewBuilder(),
		status:  StatusLoading,
		current: DefaultSelection,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metric.NewSet(prometheus.NewRegistry())
	}

	return s
}

// Load fetches the records and rebuilds the tree from scratch.
//
// When ctx is done before the fetch resolves the result is discarded, the
// builder is not invoked and the state is left untouched. A fetch failure
// moves the shell to the error state with FetchErrorMessage. A malformed
// payload is not a failure: it yields an empty, ready menu.
func (s *Shell) Load(ctx context.Context) error {
	payload, err := s.source.Fetch(ctx)

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.metrics.Fetches.Increment(metric.OutcomeDiscarded)
		slog.Debug("discarding menu fetch", "reason", ctxErr)
		return ctxErr
	}

	if err != nil {
		s.metrics.Fetches.Increment(metric.OutcomeFailure)
		slog.Error("failed to fetch menu tree", "error", err)

		s.mu.Lock()
		s.status = StatusError
		s.errMsg = FetchErrorMessage
		s.mu.Unlock()

		return err
	}

	s.metrics.Fetches.Increment(metric.OutcomeSuccess)

	items, report := s.build(payload)

	s.mu.Lock()
	s.status = StatusReady
	s.errMsg = ""
	s.items = items
	s.report = report
	s.mu.Unlock()

	return nil
}

func (s *Shell) build(payload []byte) ([]menu.DisplayItem, *menu.Report) {
	nodes := s.builder.BuildJSON(payload)
	items := menu.Render(nodes)

	var report *menu.Report
	if records, err := menu.DecodeRecords(payload); err == nil {
		r := s.builder.Diagnose(records)
		report = &r

		s.metrics.Records.Add(float64(r.Reachable), metric.DispositionReachable)
		s.metrics.Records.Add(float64(r.Excluded()), metric.DispositionExcluded)

		if r.Excluded() > 0 || len(r.Duplicates) > 0 {
			slog.Debug("menu records not shown as-is",
				"excluded", r.Excluded(),
				"orphans", len(r.Orphans),
				"duplicates", len(r.Duplicates))
		}
	}

	if len(items) == 0 {
		s.metrics.Builds.Increment(metric.OutcomeEmpty)
	} else {
		s.metrics.Builds.Increment(metric.OutcomeSuccess)
	}

	slog.Info("menu tree loaded", "items", menu.CountItems(items))

	return items, report
}

// Select makes key the current selection. Keys are not checked against the
// tree; a widget may select keys it does not render.
func (s *Shell) Select(key string) {
	s.mu.Lock()
	s.current = key
	s.mu.Unlock()

	s.metrics.Selections.Increment()
}

// Current returns the selected key.
func (s *Shell) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Snapshot returns a copy of the current state.
func (s *Shell) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.items
	if items == nil {
		items = []menu.DisplayItem{}
	}

	return Snapshot{
		Status:  s.status,
		Error:   s.errMsg,
		Current: s.current,
		Items:   items,
		Report:  s.report,
	}
}

// Ready reports whether a load has succeeded.
func (s *Shell) Ready(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status != StatusReady {
		return ErrNotReady
	}

	return nil
}
