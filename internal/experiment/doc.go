// Package experiment models the lifecycle of a single testbed
// experiment: start it, poll the portal until it is ready or failed,
// expose the addressable nodes from its manifests, and terminate it.
//
// The portal reports status as free-form text; [ParseStatusOutput]
// maps the known status lines onto the [Status] enum and treats early
// provisioning output without a status line as still in progress.
package experiment
