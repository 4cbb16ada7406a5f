package portal

import "context"

// Result codes carried in the portal's response envelope.
const (
	CodeSuccess       = 0
	CodeBadArgs       = 1
	CodeError         = 2
	CodeForbidden     = 3
	CodeBadVersion    = 4
	CodeServerError   = 5
	CodeTooBig        = 6
	CodeRefused       = 7
	CodeTimedOut      = 8
	CodeSearchFailed  = 12
	CodeAlreadyExists = 17
)

// Response is the portal's uniform RPC envelope: a numeric result code,
// free-form human-readable output, and an optional structured value.
type Response struct {
	Code   int
	Output string
	Value  any
}

// Success reports whether the call succeeded.
func (r *Response) Success() bool {
	return r.Code == CodeSuccess
}

// ExperimentStarter defines the interface for starting experiments.
type ExperimentStarter interface {
	// StartExperiment instantiates profile under project with the given
	// experiment name. A success response means the portal accepted the
	// request; provisioning proceeds asynchronously.
	StartExperiment(ctx context.Context, name, project, profile string) (*Response, error)
}

// ExperimentTerminator defines the interface for terminating experiments.
type ExperimentTerminator interface {
	// TerminateExperiment releases all resources held by the experiment.
	TerminateExperiment(ctx context.Context, project, name string) (*Response, error)
}

// StatusProber defines the interface for querying experiment status.
type StatusProber interface {
	// ExperimentStatus returns the portal's status text for the
	// experiment in the response output.
	ExperimentStatus(ctx context.Context, project, name string) (*Response, error)
}

// ManifestFetcher defines the interface for retrieving experiment manifests.
type ManifestFetcher interface {
	// ExperimentManifests returns the per-aggregate rspec manifests as a
	// JSON envelope in the response output.
	ExperimentManifests(ctx context.Context, project, name string) (*Response, error)
}

// Portal combines all portal operations the runner uses.
type Portal interface {
	ExperimentStarter
	ExperimentTerminator
	StatusProber
	ManifestFetcher
}
