package proxmox

import (
	"context"
	"fmt"

	"github.com/luthermonson/go-proxmox"

	"github.com/pvetools/pvefleet/internal/util/retry"
)

// ListVMs returns every QEMU guest across the cluster, templates included.
func (c *RealClient) ListVMs(ctx context.Context) ([]VMSummary, error) {
	var resources proxmox.ClusterResources

	err := retry.WithExponentialBackoff(ctx, func() error {
		cluster, err := c.client.Cluster(ctx)
		if err != nil {
			return classify(err)
		}
		resources, err = cluster.Resources(ctx, "vm")
		if err != nil {
			return classify(err)
		}
		return nil
	}, c.retryOpts()...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster guests: %w", err)
	}

	var vms []VMSummary
	for _, res := range resources {
		if res.Type != "qemu" {
			continue
		}
		vms = append(vms, VMSummary{
			VMID:     int(res.VMID),
			Name:     res.Name,
			Node:     res.Node,
			Status:   res.Status,
			Template: res.Template == 1,
		})
	}
	return vms, nil
}

// CloneTemplate clones a template into a new guest and waits for the clone
// task. The clone request itself is retried on transient errors; once the
// task is running, a timeout is terminal and never retried here, because the
// hypervisor may still be copying disks.
func (c *RealClient) CloneTemplate(ctx context.Context, spec CloneSpec) error {
	template, err := c.virtualMachine(ctx, spec.Node, spec.TemplateID)
	if err != nil {
		return fmt.Errorf("failed to resolve template %d: %w", spec.TemplateID, err)
	}

	opts := &proxmox.VirtualMachineCloneOptions{
		NewID:       spec.NewID,
		Name:        spec.Name,
		Target:      spec.Node,
		Description: spec.Description,
	}
	if spec.FullClone {
		opts.Full = 1
		// Target storage is only meaningful for full clones.
		opts.Storage = spec.Storage
	}

	var task *proxmox.Task
	err = retry.WithExponentialBackoff(ctx, func() error {
		_, t, err := template.Clone(ctx, opts)
		if err != nil {
			return classify(err)
		}
		task = t
		return nil
	}, c.retryOpts()...)
	if err != nil {
		return fmt.Errorf("failed to clone template %d into %d: %w", spec.TemplateID, spec.NewID, err)
	}

	if err := c.waitForTask(ctx, task, c.timeouts.Clone); err != nil {
		return fmt.Errorf("clone of %s (vmid %d): %w", spec.Name, spec.NewID, err)
	}
	return nil
}

// ConfigureGuest applies sizing and cloud-init parameters to a guest and
// waits for the config task.
func (c *RealClient) ConfigureGuest(ctx context.Context, node string, vmid int, spec GuestSpec) error {
	vm, err := c.virtualMachine(ctx, node, vmid)
	if err != nil {
		return fmt.Errorf("failed to resolve guest %d: %w", vmid, err)
	}

	opts := []proxmox.VirtualMachineOption{
		{Name: "memory", Value: spec.MemoryMB},
		{Name: "cores", Value: spec.Cores},
	}
	for _, ci := range spec.CloudInit {
		opts = append(opts, proxmox.VirtualMachineOption{Name: ci.Name, Value: ci.Value})
	}

	var task *proxmox.Task
	err = retry.WithExponentialBackoff(ctx, func() error {
		t, err := vm.Config(ctx, opts...)
		if err != nil {
			return classify(err)
		}
		task = t
		return nil
	}, c.retryOpts()...)
	if err != nil {
		return fmt.Errorf("failed to configure guest %d: %w", vmid, err)
	}

	if err := c.waitForTask(ctx, task, c.timeouts.Configure); err != nil {
		return fmt.Errorf("configure of guest %d: %w", vmid, err)
	}
	return nil
}

// StartGuest powers on a guest and waits for the start task.
func (c *RealClient) StartGuest(ctx context.Context, node string, vmid int) error {
	vm, err := c.virtualMachine(ctx, node, vmid)
	if err != nil {
		return fmt.Errorf("failed to resolve guest %d: %w", vmid, err)
	}

	var task *proxmox.Task
	err = retry.WithExponentialBackoff(ctx, func() error {
		t, err := vm.Start(ctx)
		if err != nil {
			return classify(err)
		}
		task = t
		return nil
	}, c.retryOpts()...)
	if err != nil {
		return fmt.Errorf("failed to start guest %d: %w", vmid, err)
	}

	if err := c.waitForTask(ctx, task, c.timeouts.Start); err != nil {
		return fmt.Errorf("start of guest %d: %w", vmid, err)
	}
	return nil
}

// virtualMachine resolves a guest on a node, retrying transient failures.
func (c *RealClient) virtualMachine(ctx context.Context, nodeName string, vmid int) (*proxmox.VirtualMachine, error) {
	var vm *proxmox.VirtualMachine

	err := retry.WithExponentialBackoff(ctx, func() error {
		node, err := c.client.Node(ctx, nodeName)
		if err != nil {
			return classify(err)
		}
		v, err := node.VirtualMachine(ctx, vmid)
		if err != nil {
			return classify(err)
		}
		vm = v
		return nil
	}, c.retryOpts()...)
	if err != nil {
		return nil, err
	}
	return vm, nil
}

// classify marks non-retryable API errors as fatal so the retry helper
// stops immediately.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return err
	}
	return retry.Fatal(err)
}

func (c *RealClient) retryOpts() []retry.Option {
	return []retry.Option{
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay),
	}
}
