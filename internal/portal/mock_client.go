package portal

import "context"

// MockClient is a mock implementation of Portal. Fields left nil fall
// back to success responses so tests only configure what they assert on.
type MockClient struct {
	StartExperimentFunc     func(ctx context.Context, name, project, profile string) (*Response, error)
	TerminateExperimentFunc func(ctx context.Context, project, name string) (*Response, error)
	ExperimentStatusFunc    func(ctx context.Context, project, name string) (*Response, error)
	ExperimentManifestsFunc func(ctx context.Context, project, name string) (*Response, error)
}

// Ensure interface compliance
var _ Portal = (*MockClient)(nil)

// StartExperiment mocks experiment start.
func (m *MockClient) StartExperiment(ctx context.Context, name, project, profile string) (*Response, error) {
	if m.StartExperimentFunc != nil {
		return m.StartExperimentFunc(ctx, name, project, profile)
	}
	return &Response{Code: CodeSuccess}, nil
}

// TerminateExperiment mocks experiment termination.
func (m *MockClient) TerminateExperiment(ctx context.Context, project, name string) (*Response, error) {
	if m.TerminateExperimentFunc != nil {
		return m.TerminateExperimentFunc(ctx, project, name)
	}
	return &Response{Code: CodeSuccess}, nil
}

// ExperimentStatus mocks a status probe, reporting ready by default.
func (m *MockClient) ExperimentStatus(ctx context.Context, project, name string) (*Response, error) {
	if m.ExperimentStatusFunc != nil {
		return m.ExperimentStatusFunc(ctx, project, name)
	}
	return &Response{Code: CodeSuccess, Output: "Status: ready\n"}, nil
}

// ExperimentManifests mocks manifest retrieval with an empty envelope.
func (m *MockClient) ExperimentManifests(ctx context.Context, project, name string) (*Response, error) {
	if m.ExperimentManifestsFunc != nil {
		return m.ExperimentManifestsFunc(ctx, project, name)
	}
	return &Response{Code: CodeSuccess, Output: "{}"}, nil
}
