// Package config loads and validates the runner configuration.
//
// Configuration comes from three layers, lowest precedence first: built-in
// defaults, the powder-runner.yaml file, and environment variables. The
// environment layer accepts both the canonical names (PROJECT_NAME,
// PROFILE_NAME, PWORD) and the legacy spellings (CLOUDLAB_PROJECT_NAME,
// CLOUDLAB_PROFILE_NAME, PASS) so existing CI secrets keep working; the
// resolved value is stored once and exported under both spellings when an
// external tool is invoked.
package config
