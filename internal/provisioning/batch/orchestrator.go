// Package batch orchestrates a whole provisioning run: it reads hypervisor
// state once, plans the batch, fans clone executions out under a bounded
// parallelism limit, and aggregates every per-entry outcome into one report.
package batch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pvetools/pvefleet/internal/config"
	"github.com/pvetools/pvefleet/internal/platform/proxmox"
	"github.com/pvetools/pvefleet/internal/provisioning/clone"
	"github.com/pvetools/pvefleet/internal/provisioning/plan"
	"github.com/pvetools/pvefleet/internal/util/async"
	"github.com/pvetools/pvefleet/internal/util/naming"
)

// Report is the aggregated result of one batch run. Outcomes preserve the
// plan's index order regardless of completion order.
type Report struct {
	RunID          string
	Node           string
	Outcomes       []clone.Outcome
	SucceededCount int
	FailedCount    int
	Elapsed        time.Duration
}

// ConflictError aborts a batch before dispatch when the conflict policy is
// "fail" and planned names already exist on the target node.
type ConflictError struct {
	Names []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("guests already exist on target node: %s", strings.Join(e.Names, ", "))
}

// Orchestrator drives one batch run.
type Orchestrator struct {
	client proxmox.FleetManager
	req    *config.BatchRequest
}

// New creates an orchestrator for the given validated request.
func New(client proxmox.FleetManager, req *config.BatchRequest) *Orchestrator {
	return &Orchestrator{client: client, req: req}
}

// Run executes the batch. Only request-level failures (auth, allocation,
// conflict policy) return an error; per-entry failures are folded into the
// report. Cancelling ctx stops dispatching new entries while letting
// in-flight clones finish or hit their own timeouts.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()[:8]

	log.Printf("[Batch %s] Provisioning %d guest(s) from template %d on node %s",
		runID, o.req.Count, o.req.TemplateID, o.req.Node)

	// Auth failures are fatal and never retried.
	if err := o.client.CheckAuth(ctx); err != nil {
		return nil, err
	}

	entries, snapshot, err := o.plan(ctx)
	if err != nil {
		return nil, err
	}

	description := naming.BatchDescription(runID, time.Now().UTC().Format(time.RFC3339))
	executor := clone.NewExecutor(o.client, o.req, snapshot, description)

	tasks := make([]async.Task[clone.Outcome], len(entries))
	for i, entry := range entries {
		entry := entry
		tasks[i] = async.Task[clone.Outcome]{
			Name: entry.Name,
			Func: func(taskCtx context.Context) clone.Outcome {
				// Detach from batch cancellation: a half-dispatched clone
				// runs to completion (or its own timeout) instead of being
				// abandoned mid-copy.
				return executor.Execute(context.WithoutCancel(taskCtx), entry)
			},
		}
	}

	log.Printf("[Batch %s] Dispatching %d clone(s), parallelism %d", runID, len(tasks), o.req.Parallel)

	outcomes := async.RunBounded(ctx, tasks, o.req.Parallel, func(t async.Task[clone.Outcome]) clone.Outcome {
		entry := entryByName(entries, t.Name)
		log.Printf("[Batch %s] %s not dispatched: batch cancelled", runID, entry.Name)
		return clone.Outcome{
			Entry:       entry,
			Status:      clone.StatusFailed,
			ErrorDetail: "batch cancelled before dispatch",
		}
	})

	report := &Report{
		RunID:    runID,
		Node:     o.req.Node,
		Outcomes: outcomes,
		Elapsed:  time.Since(start),
	}
	for _, outcome := range outcomes {
		recordOutcome(outcome)
		if outcome.Succeeded() {
			report.SucceededCount++
		} else {
			report.FailedCount++
		}
	}

	log.Printf("[Batch %s] Done in %s: %d succeeded, %d failed",
		runID, report.Elapsed.Round(time.Second), report.SucceededCount, report.FailedCount)
	return report, nil
}

// Plan reads hypervisor state and returns the allocation this request would
// use, without mutating anything. Used by the dry-run command.
func (o *Orchestrator) Plan(ctx context.Context) ([]plan.Entry, error) {
	if err := o.client.CheckAuth(ctx); err != nil {
		return nil, err
	}
	entries, _, err := o.plan(ctx)
	return entries, err
}

// plan reads the cluster listing once and allocates entries. The snapshot
// is not refreshed afterwards; concurrent entries share this single view.
func (o *Orchestrator) plan(ctx context.Context) ([]plan.Entry, *clone.Snapshot, error) {
	vms, err := o.client.ListVMs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read hypervisor state: %w", err)
	}
	snapshot := clone.NewSnapshot(vms, o.req.Node)

	entries, err := plan.Plan(o.req, snapshot.VMIDSet())
	if err != nil {
		return nil, nil, err
	}

	// Planned VMIDs avoid the snapshot by construction, so only name
	// collisions can trip the strict conflict policy.
	if o.req.OnConflict == config.ConflictFail {
		var conflicts []string
		for _, entry := range entries {
			if snapshot.HasName(entry.Name) {
				conflicts = append(conflicts, entry.Name)
			}
		}
		if len(conflicts) > 0 {
			sort.Strings(conflicts)
			return nil, nil, &ConflictError{Names: conflicts}
		}
	}

	return entries, snapshot, nil
}

func entryByName(entries []plan.Entry, name string) plan.Entry {
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	return plan.Entry{Name: name}
}
