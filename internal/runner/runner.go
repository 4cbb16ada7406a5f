// Package runner drives the experiment workflow as a sequential
// pipeline of phases over shared state: credentials, keypair,
// provision, verify, setup (native mode), collect. Teardown always
// runs, releasing the experiment and scrubbing the session key.
package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/powderci/powder-runner/internal/config"
	"github.com/powderci/powder-runner/internal/metrics"
	"github.com/powderci/powder-runner/internal/portal"
	"github.com/powderci/powder-runner/internal/provision"
)

// ProvisionerFactory builds the provisioner for a run. The context
// carries the loaded credential the native provisioner authenticates
// with.
type ProvisionerFactory func(rc *Context) (provision.Provisioner, error)

// Runner executes the full experiment workflow.
type Runner struct {
	cfg      *config.Config
	timeouts *config.Timeouts
	logger   Logger
	metrics  *metrics.Recorder

	newProvisioner ProvisionerFactory
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger replaces the console logger.
func WithLogger(l Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics attaches a metrics recorder. Nil disables recording.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTimeouts overrides the environment-derived timeouts.
func WithTimeouts(t *config.Timeouts) Option {
	return func(r *Runner) { r.timeouts = t }
}

// WithProvisionerFactory replaces how the provisioner is built.
func WithProvisionerFactory(f ProvisionerFactory) Option {
	return func(r *Runner) { r.newProvisioner = f }
}

// New creates a Runner for the given configuration.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:            cfg,
		timeouts:       config.LoadTimeouts(),
		logger:         ConsoleLogger{},
		newProvisioner: defaultProvisionerFactory,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the workflow and returns the first failure. Callers map
// the error to a process exit code with ExitCode.
func (r *Runner) Run(ctx context.Context) error {
	rc := &Context{
		Context:  ctx,
		Config:   r.cfg,
		Timeouts: r.timeouts,
		State:    &State{},
		Logger:   r.logger,
		Metrics:  r.metrics,
	}

	err := NewPipeline(r.phases()...).Run(rc)

	r.teardown(rc)

	r.metrics.SetRunInfo(rc.State.ExperimentName, r.cfg.Project, r.cfg.Profile, r.cfg.Provisioner.Mode)
	r.metrics.RecordSuccess(err == nil)
	if werr := r.metrics.Write(); werr != nil {
		rc.Logger.Printf("[Metrics] Warning: %v", werr)
	}

	return err
}

// phases assembles the pipeline for the configured mode. Node setup is
// a native-mode step; in external mode the tool owns the node beyond
// the connectivity check.
func (r *Runner) phases() []Phase {
	phases := []Phase{
		credentialsPhase{},
		keypairPhase{},
		provisionPhase{factory: r.newProvisioner},
		verifyPhase{},
	}
	if r.cfg.Provisioner.Mode == config.ModeNative {
		phases = append(phases, setupPhase{})
	}
	return append(phases, collectPhase{})
}

// teardown releases run resources regardless of how the pipeline ended:
// the experiment is terminated from whatever state it reached, and the
// session key is scrubbed. Failures are logged, never propagated; a run
// verdict must not change because cleanup stumbled.
func (r *Runner) teardown(rc *Context) {
	if rc.Provisioner != nil {
		// The run context may already be canceled; termination must
		// still go out. The provisioner bounds the call itself.
		if err := rc.Provisioner.Teardown(context.Background()); err != nil {
			rc.Logger.Printf("[Teardown] Warning: failed to release experiment: %v", err)
		}
	}

	if path := rc.State.PrivateKeyPath; path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			rc.Logger.Printf("[Teardown] Warning: failed to remove session key %s: %v", path, err)
		}
	}
}

// defaultProvisionerFactory builds the provisioner the configuration
// asks for.
func defaultProvisionerFactory(rc *Context) (provision.Provisioner, error) {
	cfg := rc.Config

	switch cfg.Provisioner.Mode {
	case config.ModeExternal:
		return &provision.External{
			Command:    cfg.Provisioner.Command,
			Args:       cfg.Provisioner.Args,
			Env:        cfg.ExternalToolEnv(),
			NodeIPFile: cfg.Provisioner.NodeIPFile,
		}, nil

	case config.ModeNative:
		if rc.State.Credential == nil {
			return nil, fmt.Errorf("portal credential not loaded")
		}
		client := portal.NewRealClient(cfg.PortalURL, rc.State.Credential.TLSCertificate())
		return &provision.Native{
			Portal:           client,
			NamePrefix:       cfg.NamePrefix,
			Project:          cfg.Project,
			Profile:          cfg.Profile,
			NodeID:           cfg.NodeID,
			NodeIPFile:       cfg.Provisioner.NodeIPFile,
			PollInterval:     rc.Timeouts.PollInterval,
			ProvisionTimeout: rc.Timeouts.Provision,
			TerminateTimeout: rc.Timeouts.Terminate,
		}, nil

	default:
		return nil, fmt.Errorf("unknown provisioner mode %q", cfg.Provisioner.Mode)
	}
}
