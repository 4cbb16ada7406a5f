package experiment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/powderci/powder-runner/internal/portal"
	"github.com/powderci/powder-runner/internal/util/naming"
	"github.com/powderci/powder-runner/internal/util/retry"
)

// Status of an experiment as last reported by the portal.
type Status int

const (
	// StatusNotStarted means no start request has been accepted yet.
	StatusNotStarted Status = iota
	// StatusProvisioning means resources are being allocated.
	StatusProvisioning
	// StatusProvisioned means resources exist but are still booting.
	StatusProvisioned
	// StatusReady means all nodes are up and reachable.
	StatusReady
	// StatusFailed means the portal gave up on the experiment.
	StatusFailed
	// StatusNull means the experiment has been terminated.
	StatusNull
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not-started"
	case StatusProvisioning:
		return "provisioning"
	case StatusProvisioned:
		return "provisioned"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusNull:
		return "null"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Default pacing for the provisioning wait loop.
const (
	DefaultPollInterval     = 20 * time.Second
	DefaultProvisionTimeout = 30 * time.Minute
)

// Default retry policy for idempotent portal RPCs. Start and terminate
// are never retried here; repeating them is not safe.
const (
	DefaultRPCRetries    = 2
	DefaultRPCRetryDelay = 2 * time.Second
)

// Node is a provisioned node with a routable address.
type Node struct {
	// ClientID matches the id defined for the node in the profile.
	ClientID string
	// Hostname is the node's fully qualified hostname.
	Hostname string
	// IPv4 is the node's public IPv4 address.
	IPv4 string
}

// Experiment drives one experiment through start, polling, and
// termination against a portal client.
type Experiment struct {
	Name    string
	Project string
	Profile string

	portal           portal.Portal
	status           Status
	nodes            map[string]Node
	rawManifests     []byte
	pollInterval     time.Duration
	provisionTimeout time.Duration
	rpcRetries       int
	rpcRetryDelay    time.Duration
}

// Option configures an Experiment.
type Option func(*Experiment)

// WithPollInterval sets the delay between status polls.
func WithPollInterval(d time.Duration) Option {
	return func(e *Experiment) {
		e.pollInterval = d
	}
}

// WithProvisionTimeout caps how long StartAndWait waits for the
// experiment to leave the provisioning states.
func WithProvisionTimeout(d time.Duration) Option {
	return func(e *Experiment) {
		e.provisionTimeout = d
	}
}

// WithRPCRetry sets the retry count and initial backoff delay for
// idempotent portal RPCs (status and manifest fetches).
func WithRPCRetry(retries int, delay time.Duration) Option {
	return func(e *Experiment) {
		e.rpcRetries = retries
		e.rpcRetryDelay = delay
	}
}

// New creates an experiment handle. The name is validated against the
// portal's constraints before any RPC is made.
func New(p portal.Portal, name, project, profile string, opts ...Option) (*Experiment, error) {
	if err := naming.ValidateExperimentName(name); err != nil {
		return nil, err
	}
	if project == "" {
		return nil, fmt.Errorf("project must not be empty")
	}
	if profile == "" {
		return nil, fmt.Errorf("profile must not be empty")
	}

	e := &Experiment{
		Name:             name,
		Project:          project,
		Profile:          profile,
		portal:           p,
		status:           StatusNotStarted,
		nodes:            make(map[string]Node),
		pollInterval:     DefaultPollInterval,
		provisionTimeout: DefaultProvisionTimeout,
		rpcRetries:       DefaultRPCRetries,
		rpcRetryDelay:    DefaultRPCRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Status returns the last observed status.
func (e *Experiment) Status() Status {
	return e.status
}

// Live reports whether the experiment holds portal resources that a
// teardown should release.
func (e *Experiment) Live() bool {
	return e.status != StatusNotStarted && e.status != StatusNull
}

// Nodes returns the addressable nodes parsed from the manifests. Empty
// until the experiment reaches ready.
func (e *Experiment) Nodes() map[string]Node {
	return e.nodes
}

// Node looks up a node by its client id.
func (e *Experiment) Node(clientID string) (Node, bool) {
	n, ok := e.nodes[clientID]
	return n, ok
}

// Manifests returns the raw manifests envelope as the portal sent it.
// Empty until the experiment reaches ready. Kept for archival alongside
// the parsed node table.
func (e *Experiment) Manifests() []byte {
	return e.rawManifests
}

// StartAndWait starts the experiment and polls until it is ready,
// failed, or the provisioning timeout elapses. On ready the manifests
// have been fetched and parsed. The returned status is also retained on
// the experiment for later inspection.
func (e *Experiment) StartAndWait(ctx context.Context) (Status, error) {
	log.Printf("starting experiment %s (project %s, profile %s)", e.Name, e.Project, e.Profile)

	resp, err := e.portal.StartExperiment(ctx, e.Name, e.Project, e.Profile)
	if err != nil {
		e.status = StatusFailed
		return e.status, fmt.Errorf("failed to start experiment %s: %w", e.Name, err)
	}
	if !resp.Success() {
		e.status = StatusFailed
		return e.status, fmt.Errorf("failed to start experiment %s: %w", e.Name, portal.NewError("startExperiment", resp))
	}

	deadline := time.Now().Add(e.provisionTimeout)
	for {
		provisioning, err := e.refreshStatus(ctx)
		if err != nil {
			return e.status, err
		}
		if !provisioning {
			break
		}
		if time.Now().After(deadline) {
			return e.status, fmt.Errorf("experiment %s still %s after %v", e.Name, e.status, e.provisionTimeout)
		}

		log.Printf("experiment %s is %s, polling again in %v", e.Name, e.status, e.pollInterval)
		select {
		case <-ctx.Done():
			return e.status, fmt.Errorf("wait for experiment %s canceled: %w", e.Name, ctx.Err())
		case <-time.After(e.pollInterval):
		}
	}

	log.Printf("experiment %s settled at status %s", e.Name, e.status)
	return e.status, nil
}

// Terminate releases all resources held by the experiment.
func (e *Experiment) Terminate(ctx context.Context) error {
	log.Printf("terminating experiment %s", e.Name)

	resp, err := e.portal.TerminateExperiment(ctx, e.Project, e.Name)
	if err != nil {
		return fmt.Errorf("failed to terminate experiment %s: %w", e.Name, err)
	}
	if !resp.Success() {
		return fmt.Errorf("failed to terminate experiment %s: %w", e.Name, portal.NewError("terminateExperiment", resp))
	}

	e.status = StatusNull
	e.nodes = make(map[string]Node)
	return nil
}

// Refresh performs a one-shot status probe, updating the retained
// status. Used by the status command outside the wait loop.
func (e *Experiment) Refresh(ctx context.Context) (Status, error) {
	if _, err := e.refreshStatus(ctx); err != nil {
		return e.status, err
	}
	return e.status, nil
}

// callIdempotent performs a portal RPC that is safe to repeat, retrying
// transport errors with exponential backoff. A response the portal did
// answer is returned as-is regardless of its code; refusals are
// answers, not outages.
func (e *Experiment) callIdempotent(ctx context.Context, call func(context.Context) (*portal.Response, error)) (*portal.Response, error) {
	var resp *portal.Response
	err := retry.WithExponentialBackoff(ctx, func() error {
		r, err := call(ctx)
		if err != nil {
			return err
		}
		resp = r
		return nil
	},
		retry.WithMaxRetries(e.rpcRetries),
		retry.WithInitialDelay(e.rpcRetryDelay),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// refreshStatus asks the portal for the experiment's status and updates
// local state, reporting whether provisioning is still in progress.
// Reaching ready also fetches and parses the manifests.
func (e *Experiment) refreshStatus(ctx context.Context) (bool, error) {
	resp, err := e.callIdempotent(ctx, func(ctx context.Context) (*portal.Response, error) {
		return e.portal.ExperimentStatus(ctx, e.Project, e.Name)
	})
	if err != nil {
		return false, fmt.Errorf("failed to get status of experiment %s: %w", e.Name, err)
	}
	if !resp.Success() {
		return false, fmt.Errorf("failed to get status of experiment %s: %w", e.Name, portal.NewError("experimentStatus", resp))
	}

	status, provisioning, known := ParseStatusOutput(resp.Output)
	if known {
		e.status = status
	}

	if e.status == StatusReady && len(e.nodes) == 0 {
		if err := e.loadManifests(ctx); err != nil {
			return false, err
		}
	}
	return provisioning, nil
}

// loadManifests fetches the experiment manifests and rebuilds the node
// lookup table.
func (e *Experiment) loadManifests(ctx context.Context) error {
	resp, err := e.callIdempotent(ctx, func(ctx context.Context) (*portal.Response, error) {
		return e.portal.ExperimentManifests(ctx, e.Project, e.Name)
	})
	if err != nil {
		return fmt.Errorf("failed to get manifests for experiment %s: %w", e.Name, err)
	}
	if !resp.Success() {
		return fmt.Errorf("failed to get manifests for experiment %s: %w", e.Name, portal.NewError("experimentManifests", resp))
	}

	nodes, err := ParseManifests([]byte(resp.Output))
	if err != nil {
		return fmt.Errorf("experiment %s: %w", e.Name, err)
	}

	e.nodes = nodes
	e.rawManifests = []byte(resp.Output)
	log.Printf("experiment %s manifests list %d addressable node(s)", e.Name, len(nodes))
	return nil
}

// ParseStatusOutput interprets the portal's free-form status text.
// known reports whether the text carried a recognized status line;
// provisioning reports whether the experiment is still being set up.
func ParseStatusOutput(output string) (status Status, provisioning, known bool) {
	s := strings.TrimSpace(output)
	switch {
	case strings.HasPrefix(s, "Status: ready"):
		return StatusReady, false, true
	case strings.HasPrefix(s, "Status: provisioning"):
		return StatusProvisioning, true, true
	case strings.HasPrefix(s, "Status: provisioned"):
		return StatusProvisioned, true, true
	case strings.HasPrefix(s, "Status: failed"):
		return StatusFailed, false, true
	}

	// Early in provisioning the portal sometimes emits only the
	// experiment UUID and wbstore details with no status line yet.
	if strings.Contains(s, "UUID:") && strings.Contains(s, "wbstore:") {
		return StatusNotStarted, true, false
	}
	return StatusNotStarted, false, false
}
