package config

import (
	"fmt"

	"github.com/powderci/powder-runner/internal/util/naming"
)

// Validate checks the configuration for common errors and returns a detailed
// error if validation fails.
func (c *Config) Validate() error {
	// Required fields
	if c.Project == "" {
		return fmt.Errorf("project is required")
	}
	if c.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	if c.PortalURL == "" {
		return fmt.Errorf("portal_url is required")
	}

	// The prefix must leave room for the random suffix.
	if len(c.NamePrefix)+naming.SuffixLength > naming.MaxExperimentNameLength {
		return fmt.Errorf("name_prefix %q too long: experiment names are capped at %d characters",
			c.NamePrefix, naming.MaxExperimentNameLength)
	}

	switch c.Provisioner.Mode {
	case ModeNative:
	case ModeExternal:
		if c.Provisioner.Command == "" {
			return fmt.Errorf("provisioner.command is required in external mode")
		}
	default:
		return fmt.Errorf("invalid provisioner mode %q: must be %q or %q",
			c.Provisioner.Mode, ModeNative, ModeExternal)
	}

	if c.Provisioner.NodeIPFile == "" {
		return fmt.Errorf("provisioner.node_ip_file is required")
	}

	if c.SSH.Port <= 0 || c.SSH.Port > 65535 {
		return fmt.Errorf("invalid ssh port %d", c.SSH.Port)
	}

	return nil
}
