// Package report turns a batch run into operator-facing output: a structured
// summary, a styled terminal rendering, and a YAML inventory fragment.
package report

import (
	"time"

	"github.com/pvetools/pvefleet/internal/provisioning/batch"
	"github.com/pvetools/pvefleet/internal/provisioning/clone"
)

// Line is one guest's row in the summary.
type Line struct {
	Name    string
	VMID    int
	Address string
	Detail  string
}

// Summary groups a run's outcomes by terminal status, preserving plan order
// within each group.
type Summary struct {
	RunID    string
	Node     string
	Created  []Line
	Existing []Line
	Failed   []Line
	Elapsed  time.Duration
}

// Total returns the number of requested guests.
func (s *Summary) Total() int {
	return len(s.Created) + len(s.Existing) + len(s.Failed)
}

// Summarize groups the report's outcomes. It is pure: no I/O, no styling.
func Summarize(r *batch.Report) *Summary {
	s := &Summary{
		RunID:   r.RunID,
		Node:    r.Node,
		Elapsed: r.Elapsed,
	}
	for _, outcome := range r.Outcomes {
		line := Line{
			Name:    outcome.Entry.Name,
			VMID:    outcome.Entry.VMID,
			Address: outcome.Entry.IPAddress,
			Detail:  outcome.ErrorDetail,
		}
		switch outcome.Status {
		case clone.StatusCreated:
			s.Created = append(s.Created, line)
		case clone.StatusAlreadyExists:
			s.Existing = append(s.Existing, line)
		default:
			if line.Detail == "" {
				line.Detail = string(outcome.Status)
			}
			s.Failed = append(s.Failed, line)
		}
	}
	return s
}
