// Package portal is a client for the testbed portal's XML-RPC API.
//
// The portal exposes experiment lifecycle operations (start, status,
// manifests, terminate) behind a uniform envelope of result code,
// human-readable output, and optional structured value. Authentication
// is a TLS client certificate issued by the portal. The package follows
// the interface-per-concern layout: narrow interfaces for each
// operation, a [Portal] union, [RealClient] speaking the wire protocol,
// and [MockClient] for tests.
package portal
