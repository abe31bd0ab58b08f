package proxmox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luthermonson/go-proxmox"

	"github.com/pvetools/pvefleet/internal/util/retry"
)

// pollJitter randomizes each poll interval by +/-25% so a batch of clones
// does not poll the API in lockstep.
const pollJitter = 0.5

// maxConsecutivePollErrors bounds how many failed status polls are tolerated
// before the wait is abandoned. A long clone should survive a blip in API
// availability.
const maxConsecutivePollErrors = 5

// waitForTask polls a hypervisor task until it completes or the timeout
// elapses. A timeout is reported as ErrTaskTimeout and a task error exit as
// ErrTaskFailed.
func (c *RealClient) waitForTask(ctx context.Context, task *proxmox.Task, timeout time.Duration) error {
	if task == nil {
		// Some config-only changes complete synchronously without a task.
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pollErrors := 0
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w (waited %s for %s)", ErrTaskTimeout, timeout, task.ID)
			}
			return ctx.Err()
		case <-time.After(retry.Jittered(c.timeouts.TaskPollInterval, pollJitter)):
		}

		if err := task.Ping(ctx); err != nil {
			// A ping that died because the deadline expired is a task
			// timeout, not an API failure; let the select above report it.
			if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			pollErrors++
			if pollErrors >= maxConsecutivePollErrors {
				return fmt.Errorf("failed to poll task %s: %w", task.ID, err)
			}
			continue
		}
		pollErrors = 0

		if !task.IsCompleted {
			continue
		}
		if task.IsFailed {
			return fmt.Errorf("%w: task %s exited with %q", ErrTaskFailed, task.ID, task.ExitStatus)
		}
		return nil
	}
}
