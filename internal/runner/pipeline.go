package runner

import (
	"errors"
	"fmt"
	"time"
)

// Phase names, also used as the metrics phase label.
const (
	PhaseCredentials = "credentials"
	PhaseKeypair     = "keypair"
	PhaseProvision   = "provision"
	PhaseVerify      = "verify"
	PhaseSetup       = "setup"
	PhaseCollect     = "collect"
)

// Exit codes preserved from the original CI contract: 0 success, 1 a
// step failed, 2 the experiment could not be started, 3 usage error.
const (
	ExitSuccess    = 0
	ExitFailed     = 1
	ExitNotStarted = 2
	ExitUsage      = 3
)

// Phase is one step of the run pipeline.
type Phase interface {
	// Name returns the phase name used in logs and metrics.
	Name() string

	// Run executes the phase against the shared context.
	Run(ctx *Context) error
}

// PhaseError reports which pipeline phase failed.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// ExitCode maps a run error to the process exit code. A provisioning
// failure means the experiment never started; any other failure is a
// failed run.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var phaseErr *PhaseError
	if errors.As(err, &phaseErr) && phaseErr.Phase == PhaseProvision {
		return ExitNotStarted
	}
	return ExitFailed
}

// Pipeline executes phases sequentially, stopping at the first failure.
type Pipeline struct {
	Phases []Phase
}

// NewPipeline creates a pipeline from the given phases.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{Phases: phases}
}

// Run executes all phases in order. Each phase's duration is logged and
// recorded; the first failure aborts the sequence and is returned as a
// PhaseError.
func (p *Pipeline) Run(rc *Context) error {
	start := time.Now()
	rc.Logger.Printf("Starting run with %d phases...", len(p.Phases))

	for i, phase := range p.Phases {
		phaseStart := time.Now()
		name := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(p.Phases))

		rc.Logger.Printf("[%s] starting", name)

		err := phase.Run(rc)
		rc.Metrics.RecordPhase(phase.Name(), time.Since(phaseStart))

		if err != nil {
			rc.Logger.Printf("[%s] failed: %v", name, err)
			return &PhaseError{Phase: phase.Name(), Err: err}
		}

		rc.Logger.Printf("[%s] completed in %v", name, time.Since(phaseStart).Round(time.Millisecond))
	}

	rc.Logger.Printf("Run completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
