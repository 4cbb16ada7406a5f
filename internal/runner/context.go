package runner

import (
	"context"
	"log"
	"time"

	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/credentials"
	"github.com/powderci/powder-runner/internal/experiment"
	"github.com/powderci/powder-runner/internal/metrics"
	sshclient "github.com/powderci/powder-runner/internal/platform/ssh"
	"github.com/powderci/powder-runner/internal/provision"
)

// State holds the shared results of pipeline phases.
// It is progressively populated as each phase completes and is read
// by subsequent phases that need earlier results.
type State struct {
	// Credential results (populated by the credentials phase)
	Credential *credentials.Material

	// Keypair results (populated by the keypair phase)
	PrivateKeyPath string
	PublicKeyPath  string

	// Provisioning results (populated by the provision phase)
	NodeIP         string
	Node           experiment.Node
	ExperimentName string
	Manifests      []byte
	ReadyWait      time.Duration

	// Verification results (populated by the verify phase)
	SSH         *sshclient.Client
	Hostname    string
	SSHAttempts int

	// Setup results (populated by the setup phase)
	SetupLog []byte
}

// Context wraps all dependencies and state needed by a pipeline phase.
type Context struct {
	context.Context
	Config   *config.Config
	Timeouts *config.Timeouts
	State    *State
	Logger   Logger
	Metrics  *metrics.Recorder

	// Provisioner is set by the provision phase and read by the run
	// teardown, which must release resources even after a failed phase.
	Provisioner provision.Provisioner
}

// NewContext creates a pipeline context with console logging and
// environment-derived timeouts.
func NewContext(ctx context.Context, cfg *config.Config) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		Timeouts: config.LoadTimeouts(),
		State:    &State{},
		Logger:   ConsoleLogger{},
	}
}

// Logger is the logging seam for pipeline progress.
type Logger interface {
	Printf(format string, v ...interface{})
}

// ConsoleLogger logs through the standard log package.
type ConsoleLogger struct{}

// Printf implements Logger.
func (ConsoleLogger) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}
