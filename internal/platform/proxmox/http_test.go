package proxmox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvetools/pvefleet/internal/cloudinit"
	"github.com/pvetools/pvefleet/internal/config"
)

// Canned UPID for one hypervisor task. The node segment must match the
// node used by the tests because the task status URL is derived from it.
const testUPID = "UPID:pve1:00001234:00005678:66A0B2D1:qmclone:100:root@pam:"

// testServer mocks the Proxmox VE API for RealClient tests.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux
}

func newTestServer() *testServer {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	return &testServer{server: server, mux: mux}
}

func (ts *testServer) close() {
	ts.server.Close()
}

// realClient returns a RealClient pointed at the test server, with timeouts
// shrunk so polling tests finish quickly.
func (ts *testServer) realClient(t *testing.T, timeouts *config.Timeouts) *RealClient {
	t.Helper()
	if timeouts == nil {
		timeouts = &config.Timeouts{
			Clone:             2 * time.Second,
			Configure:         2 * time.Second,
			Start:             2 * time.Second,
			TaskPollInterval:  5 * time.Millisecond,
			RetryMaxAttempts:  2,
			RetryInitialDelay: time.Millisecond,
		}
	}

	client, err := NewRealClient(
		ts.server.URL+"/api2/json",
		Credentials{TokenID: "root@pam!fleet", TokenSecret: "secret"},
		false,
		WithTimeouts(timeouts),
	)
	require.NoError(t, err)
	return client
}

func (ts *testServer) handleFunc(pattern string, handler http.HandlerFunc) {
	ts.mux.HandleFunc(pattern, handler)
}

// handleNodeAndGuest registers the lookup endpoints used to resolve a guest:
// node status plus the guest's current status and config. The guest endpoints
// are registered as a subtree so tests can still claim specific guest paths
// (clone, config, start) with more specific patterns.
func (ts *testServer) handleNodeAndGuest(node string, vmid int, name string) {
	ts.handleFunc(fmt.Sprintf("/api2/json/nodes/%s/status", node), func(w http.ResponseWriter, _ *http.Request) {
		jsonData(w, http.StatusOK, map[string]any{})
	})
	ts.handleFunc(fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/", node, vmid), func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status/current"):
			jsonData(w, http.StatusOK, map[string]any{"vmid": vmid, "name": name, "status": "stopped"})
		case strings.HasSuffix(r.URL.Path, "/config"):
			jsonData(w, http.StatusOK, map[string]any{})
		default:
			http.NotFound(w, r)
		}
	})
}

// handleTaskStatus serves the canned task's status endpoint.
func (ts *testServer) handleTaskStatus(handler http.HandlerFunc) {
	ts.handleFunc("/api2/json/nodes/pve1/tasks/"+testUPID+"/status", handler)
}

// jsonData writes the Proxmox response envelope {"data": payload}.
func jsonData(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": payload})
}

func taskRunning(w http.ResponseWriter) {
	jsonData(w, http.StatusOK, map[string]any{"upid": testUPID, "node": "pve1", "status": "running"})
}

func taskStopped(w http.ResponseWriter, exitStatus string) {
	jsonData(w, http.StatusOK, map[string]any{
		"upid": testUPID, "node": "pve1", "status": "stopped", "exitstatus": exitStatus,
	})
}

// decodeBody parses a request body into a flat map, accepting either JSON or
// form encoding so assertions do not depend on the client's wire choice.
func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	params := map[string]any{}
	if json.Unmarshal(raw, &params) == nil {
		return params
	}
	values, err := url.ParseQuery(string(raw))
	require.NoError(t, err)
	for key := range values {
		params[key] = values.Get(key)
	}
	return params
}

// intParam reads a numeric body parameter regardless of encoding.
func intParam(t *testing.T, params map[string]any, key string) int {
	t.Helper()
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case string:
		n := 0
		_, err := fmt.Sscanf(v, "%d", &n)
		require.NoError(t, err)
		return n
	default:
		t.Fatalf("parameter %q missing or unexpected type %T", key, params[key])
		return 0
	}
}

func TestRealClient_CheckAuth_WithHTTPMock(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/api2/json/version", func(w http.ResponseWriter, _ *http.Request) {
		jsonData(w, http.StatusOK, map[string]any{"version": "8.2.4", "release": "8.2", "repoid": "abc123"})
	})

	err := ts.realClient(t, nil).CheckAuth(context.Background())
	assert.NoError(t, err)
}

func TestRealClient_CheckAuth_Rejected(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/api2/json/version", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := ts.realClient(t, nil).CheckAuth(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestRealClient_ListVMs_FiltersQemu(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/api2/json/cluster/status", func(w http.ResponseWriter, _ *http.Request) {
		jsonData(w, http.StatusOK, []map[string]any{
			{"type": "cluster", "id": "cluster", "name": "lab"},
		})
	})
	ts.handleFunc("/api2/json/cluster/resources", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vm", r.URL.Query().Get("type"))
		jsonData(w, http.StatusOK, []map[string]any{
			{"type": "qemu", "vmid": 100, "name": "web-1", "node": "pve1", "status": "running"},
			{"type": "qemu", "vmid": 9000, "name": "tmpl", "node": "pve1", "status": "stopped", "template": 1},
			{"type": "lxc", "vmid": 200, "name": "ct", "node": "pve1", "status": "running"},
		})
	})

	vms, err := ts.realClient(t, nil).ListVMs(context.Background())
	require.NoError(t, err)

	require.Len(t, vms, 2, "lxc containers are not part of the fleet")
	assert.Equal(t, VMSummary{VMID: 100, Name: "web-1", Node: "pve1", Status: "running"}, vms[0])
	assert.Equal(t, VMSummary{VMID: 9000, Name: "tmpl", Node: "pve1", Status: "stopped", Template: true}, vms[1])
}

func TestRealClient_CloneTemplate_FullClone(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	var captured map[string]any
	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		captured = decodeBody(t, r)
		jsonData(w, http.StatusOK, testUPID)
	})
	ts.handleTaskStatus(func(w http.ResponseWriter, _ *http.Request) {
		taskStopped(w, "OK")
	})

	err := ts.realClient(t, nil).CloneTemplate(context.Background(), CloneSpec{
		TemplateID:  9000,
		NewID:       100,
		Name:        "web-1",
		Node:        "pve1",
		Storage:     "local-lvm",
		FullClone:   true,
		Description: "pvefleet run ab12cd34",
	})
	require.NoError(t, err)

	require.NotNil(t, captured, "clone request never reached the API")
	assert.Equal(t, 100, intParam(t, captured, "newid"))
	assert.Equal(t, "web-1", captured["name"])
	assert.Equal(t, "pve1", captured["target"])
	assert.Equal(t, 1, intParam(t, captured, "full"))
	assert.Equal(t, "local-lvm", captured["storage"])
	assert.Equal(t, "pvefleet run ab12cd34", captured["description"])
}

func TestRealClient_CloneTemplate_LinkedCloneOmitsStorage(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	var captured map[string]any
	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, r *http.Request) {
		captured = decodeBody(t, r)
		jsonData(w, http.StatusOK, testUPID)
	})
	ts.handleTaskStatus(func(w http.ResponseWriter, _ *http.Request) {
		taskStopped(w, "OK")
	})

	err := ts.realClient(t, nil).CloneTemplate(context.Background(), CloneSpec{
		TemplateID: 9000,
		NewID:      100,
		Name:       "web-1",
		Node:       "pve1",
		Storage:    "local-lvm",
		FullClone:  false,
	})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.NotContains(t, captured, "full", "linked clone must not request a full copy")
	assert.NotContains(t, captured, "storage", "target storage only applies to full clones")
}

func TestRealClient_CloneTemplate_TaskFailure(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, _ *http.Request) {
		jsonData(w, http.StatusOK, testUPID)
	})
	ts.handleTaskStatus(func(w http.ResponseWriter, _ *http.Request) {
		taskStopped(w, "clone failed: no space left on storage 'local-lvm'")
	})

	err := ts.realClient(t, nil).CloneTemplate(context.Background(), CloneSpec{
		TemplateID: 9000, NewID: 100, Name: "web-1", Node: "pve1", FullClone: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTaskFailed))
	assert.Contains(t, err.Error(), "no space left")
}

func TestRealClient_CloneTemplate_TaskTimeout(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, _ *http.Request) {
		jsonData(w, http.StatusOK, testUPID)
	})
	// The task never leaves "running"; the clone timeout must fire.
	ts.handleTaskStatus(func(w http.ResponseWriter, _ *http.Request) {
		taskRunning(w)
	})

	client := ts.realClient(t, &config.Timeouts{
		Clone:             80 * time.Millisecond,
		TaskPollInterval:  10 * time.Millisecond,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	})

	err := client.CloneTemplate(context.Background(), CloneSpec{
		TemplateID: 9000, NewID: 100, Name: "web-1", Node: "pve1", FullClone: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTaskTimeout))
	assert.False(t, IsTransient(err), "a timed-out clone must never look retryable")
}

func TestRealClient_CloneTemplate_TransientRetryExhaustion(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	var attempts atomic.Int32
	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := ts.realClient(t, nil).CloneTemplate(context.Background(), CloneSpec{
		TemplateID: 9000, NewID: 100, Name: "web-1", Node: "pve1", FullClone: true,
	})
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load(), "2 configured retries means 3 attempts")
	assert.Contains(t, err.Error(), "failed to clone template")
}

func TestRealClient_CloneTemplate_AuthErrorNotRetried(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	var attempts atomic.Int32
	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := ts.realClient(t, nil).CloneTemplate(context.Background(), CloneSpec{
		TemplateID: 9000, NewID: 100, Name: "web-1", Node: "pve1", FullClone: true,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "rejected credentials are fatal, not retried")
}

func TestRealClient_ConfigureGuest_WithHTTPMock(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 100, "web-1")

	var captured map[string]any
	ts.handleFunc("/api2/json/nodes/pve1/qemu/100/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Config read during guest resolution, not the configure call.
			jsonData(w, http.StatusOK, map[string]any{})
			return
		}
		captured = decodeBody(t, r)
		jsonData(w, http.StatusOK, testUPID)
	})
	ts.handleTaskStatus(func(w http.ResponseWriter, _ *http.Request) {
		taskStopped(w, "OK")
	})

	params := cloudinit.Params{
		Hostname:     "web-1",
		User:         "admin",
		SSHPublicKey: "ssh-ed25519 AAAA test",
		Network:      cloudinit.StaticNetwork("192.168.1.150", 24, "192.168.1.1"),
		DNSServers:   []string{"1.1.1.1", "8.8.8.8"},
		SearchDomain: "lab.local",
	}
	opts, err := params.Options()
	require.NoError(t, err)

	err = ts.realClient(t, nil).ConfigureGuest(context.Background(), "pve1", 100, GuestSpec{
		MemoryMB:  4096,
		Cores:     2,
		CloudInit: opts,
	})
	require.NoError(t, err)

	require.NotNil(t, captured, "config request never reached the API")
	assert.Equal(t, 4096, intParam(t, captured, "memory"))
	assert.Equal(t, 2, intParam(t, captured, "cores"))
	assert.Equal(t, "ip=192.168.1.150/24,gw=192.168.1.1", captured["ipconfig0"])
	assert.Equal(t, "admin", captured["ciuser"])
	assert.Equal(t, "1.1.1.1 8.8.8.8", captured["nameserver"])
	assert.Equal(t, "lab.local", captured["searchdomain"])

	sshkeys, ok := captured["sshkeys"].(string)
	require.True(t, ok, "sshkeys missing from config request")
	assert.NotContains(t, sshkeys, " ", "key material must be percent-encoded")
	decoded, err := url.PathUnescape(sshkeys)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519 AAAA test", decoded)
}

func TestRealClient_StartGuest_WithHTTPMock(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 100, "web-1")

	var started bool
	ts.handleFunc("/api2/json/nodes/pve1/qemu/100/status/start", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		started = true
		jsonData(w, http.StatusOK, testUPID)
	})
	ts.handleTaskStatus(func(w http.ResponseWriter, _ *http.Request) {
		taskStopped(w, "OK")
	})

	err := ts.realClient(t, nil).StartGuest(context.Background(), "pve1", 100)
	require.NoError(t, err)
	assert.True(t, started)
}

func TestRealClient_WaitForTask_PollErrorsExhausted(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, _ *http.Request) {
		jsonData(w, http.StatusOK, testUPID)
	})
	// Every status poll fails while the deadline stays far away, so the
	// consecutive-error cap is what ends the wait.
	ts.handleTaskStatus(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := ts.realClient(t, nil).CloneTemplate(context.Background(), CloneSpec{
		TemplateID: 9000, NewID: 100, Name: "web-1", Node: "pve1", FullClone: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to poll task")
	assert.False(t, errors.Is(err, ErrTaskTimeout))
}

func TestRealClient_WaitForTask_DeadlineDuringPollIsTimeout(t *testing.T) {
	ts := newTestServer()
	defer ts.close()
	ts.handleNodeAndGuest("pve1", 9000, "tmpl")

	ts.handleFunc("/api2/json/nodes/pve1/qemu/9000/clone", func(w http.ResponseWriter, _ *http.Request) {
		jsonData(w, http.StatusOK, testUPID)
	})

	// Four polls fail outright, leaving one slot before the consecutive
	// error cap; the next poll stalls past the clone deadline. The expired
	// deadline must be reported as a task timeout, not as a polling failure.
	var polls atomic.Int32
	ts.handleTaskStatus(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) <= 4 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := ts.realClient(t, &config.Timeouts{
		Clone:             250 * time.Millisecond,
		TaskPollInterval:  10 * time.Millisecond,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	})

	err := client.CloneTemplate(context.Background(), CloneSpec{
		TemplateID: 9000, NewID: 100, Name: "web-1", Node: "pve1", FullClone: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTaskTimeout),
		"deadline expiring mid-poll must classify as timeout, got: %v", err)
	assert.False(t, strings.Contains(err.Error(), "failed to poll task"))
}
