// Package naming generates and validates experiment names for the testbed
// portal.
//
// Names follow the pattern {prefix}{7char}: the configured prefix plus a
// random lowercase alphanumeric suffix, capped at the portal's 16-character
// limit. The random suffix prevents collisions between concurrent CI runs
// against the same project.
package naming
