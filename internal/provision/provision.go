package provision

import (
	"context"
	"net"
	"time"

	"github.com/powderci/powder-runner/internal/experiment"
)

// Result describes a successfully provisioned node.
type Result struct {
	// NodeIP is the node's public address, as validated from node_ip.txt
	// (external mode) or the experiment manifests (native mode).
	NodeIP net.IP
	// Node carries the manifest details in native mode. Zero in external
	// mode, where the tool reports only the address.
	Node experiment.Node
	// ExperimentName is the portal experiment name in native mode. Empty
	// in external mode.
	ExperimentName string
	// Manifests is the raw per-aggregate manifest snapshot in native
	// mode, kept for the run artifacts. Nil in external mode.
	Manifests []byte
	// ReadyWait is how long the node took to become available: the
	// readiness wait in native mode, the tool's runtime in external mode.
	ReadyWait time.Duration
}

// Provisioner makes a node available and releases it afterwards.
type Provisioner interface {
	// Provision blocks until a node is available and returns its address.
	Provision(ctx context.Context) (*Result, error)
	// Teardown releases whatever Provision acquired. It must be safe to
	// call after a failed Provision and when nothing was acquired.
	Teardown(ctx context.Context) error
}
