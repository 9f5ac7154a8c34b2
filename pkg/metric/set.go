package metric

import "github.com/prometheus/client_golang/prometheus"

// Label values used with the Set counters.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
	OutcomeEmpty     = "empty"

	DispositionReachable = "reachable"
	DispositionExcluded  = "excluded"
)

// Set groups the counters menutree reports.
type Set struct {
	// Fetches counts record fetches by outcome.
	Fetches IncrementalCounter

	// Builds counts tree builds by outcome (success or empty).
	Builds IncrementalCounter

	// Records counts input records by whether they made it into the tree.
	Records IncrementalCounter

	// Selections counts menu selections.
	Selections IncrementalCounter
}

// NewSet registers the menutree counters with reg.
func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		Fetches:    NewCounterWithRegistry(reg, "fetches_total", "Menu record fetches by outcome.", "outcome"),
		Builds:     NewCounterWithRegistry(reg, "builds_total", "Menu tree builds by outcome.", "outcome"),
		Records:    NewCounterWithRegistry(reg, "records_total", "Menu records by disposition.", "disposition"),
		Selections: NewCounterWithRegistry(reg, "selections_total", "Menu selections."),
	}
}
