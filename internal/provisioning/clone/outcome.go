package clone

import (
	"time"

	"github.com/pvetools/pvefleet/internal/provisioning/plan"
)

// Status is the terminal state of one plan entry.
type Status string

// Terminal statuses. Every entry of a batch ends in exactly one of these.
const (
	StatusCreated       Status = "Created"
	StatusAlreadyExists Status = "AlreadyExists"
	StatusFailed        Status = "Failed"
	StatusTimedOut      Status = "TimedOut"
)

// Phase is a stage of the per-entry lifecycle:
// Planned -> Cloning -> Configuring -> Starting -> Created, with no
// backward transitions. The failing phase is recorded in the error detail.
type Phase string

// Lifecycle phases.
const (
	PhasePlanned     Phase = "planned"
	PhaseCloning     Phase = "cloning"
	PhaseConfiguring Phase = "configuring"
	PhaseStarting    Phase = "starting"
)

// Outcome records the terminal result of one plan entry. It is produced
// exactly once per entry and never mutated after emission.
type Outcome struct {
	Entry       plan.Entry
	Status      Status
	ErrorDetail string
	Elapsed     time.Duration
}

// Succeeded reports whether the entry ended in a non-failure state.
// AlreadyExists counts as success: the requested guest is present.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusCreated || o.Status == StatusAlreadyExists
}
