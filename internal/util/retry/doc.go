// Package retry provides backoff retry logic for transient failures.
//
// [WithExponentialBackoff] doubles the delay between attempts and is used
// for portal RPC calls. [WithLinearBackoff] grows the delay by a fixed step
// and matches the pacing of SSH dials against a node that is still booting.
// Errors wrapped with [Fatal] abort the loop immediately.
package retry
