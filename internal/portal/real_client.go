package portal

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Method names in the portal module.
const (
	methodStartExperiment     = "portal.startExperiment"
	methodTerminateExperiment = "portal.terminateExperiment"
	methodExperimentStatus    = "portal.experimentStatus"
	methodExperimentManifests = "portal.experimentManifests"
)

// defaultRequestTimeout bounds a single RPC round trip. Experiment
// termination can take the portal a while to acknowledge.
const defaultRequestTimeout = 2 * time.Minute

// RealClient implements Portal against a live portal endpoint.
type RealClient struct {
	url string
	hc  *http.Client
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *RealClient) {
		c.hc = hc
	}
}

// WithRequestTimeout overrides the per-call timeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *RealClient) {
		c.hc.Timeout = d
	}
}

// NewRealClient creates a portal client that authenticates with the
// given TLS client certificate. The portal's server certificate is
// issued by the testbed's private CA, so server verification is
// disabled, matching the trust model of the portal's own tooling.
func NewRealClient(portalURL string, cert tls.Certificate, opts ...ClientOption) *RealClient {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates:       []tls.Certificate{cert},
			InsecureSkipVerify: true, //nolint:gosec // private portal CA
		},
	}

	c := &RealClient{
		url: portalURL,
		hc: &http.Client{
			Transport: transport,
			Timeout:   defaultRequestTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartExperiment instantiates profile under project with the given
// experiment name. The profile reference is qualified with the project
// per the portal's "project,profile" convention.
func (c *RealClient) StartExperiment(ctx context.Context, name, project, profile string) (*Response, error) {
	return c.call(ctx, methodStartExperiment, map[string]string{
		"name":    name,
		"proj":    project,
		"profile": project + "," + profile,
	})
}

// TerminateExperiment releases all resources held by the experiment.
func (c *RealClient) TerminateExperiment(ctx context.Context, project, name string) (*Response, error) {
	return c.call(ctx, methodTerminateExperiment, map[string]string{
		"experiment": project + "," + name,
	})
}

// ExperimentStatus returns the portal's status text for the experiment.
func (c *RealClient) ExperimentStatus(ctx context.Context, project, name string) (*Response, error) {
	return c.call(ctx, methodExperimentStatus, map[string]string{
		"experiment": project + "," + name,
	})
}

// ExperimentManifests returns the per-aggregate rspec manifests.
func (c *RealClient) ExperimentManifests(ctx context.Context, project, name string) (*Response, error) {
	return c.call(ctx, methodExperimentManifests, map[string]string{
		"experiment": project + "," + name,
	})
}

// call performs one XML-RPC round trip.
func (c *RealClient) call(ctx context.Context, method string, args map[string]string) (*Response, error) {
	body, err := marshalCall(method, args)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: portal returned HTTP %d", method, resp.StatusCode)
	}

	out, err := unmarshalResponse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}
