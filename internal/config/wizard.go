package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/powderci/powder-runner/internal/util/naming"
)

// WizardResult holds the user's choices from the wizard.
type WizardResult struct {
	Project    string
	Profile    string
	NamePrefix string
	NodeID     string
	User       string
	Mode       string
	Command    string
}

// RunWizard runs the interactive configuration wizard.
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		// Defaults
		Project:    DefaultProject,
		Profile:    DefaultProfile,
		NamePrefix: DefaultNamePrefix,
		NodeID:     DefaultNodeID,
		Mode:       ModeNative,
	}

	form := huh.NewForm(
		// Experiment identity
		huh.NewGroup(
			huh.NewInput().
				Title("Project").
				Description("Portal project the experiments are started under").
				Placeholder(DefaultProject).
				Value(&result.Project).
				Validate(validateRequired("project")),

			huh.NewInput().
				Title("Profile").
				Description("Portal profile to instantiate").
				Placeholder(DefaultProfile).
				Value(&result.Profile).
				Validate(validateRequired("profile")),
		),

		// Naming
		huh.NewGroup(
			huh.NewInput().
				Title("Experiment name prefix").
				Description(fmt.Sprintf("A random suffix is appended; total length is capped at %d", naming.MaxExperimentNameLength)).
				Placeholder(DefaultNamePrefix).
				Value(&result.NamePrefix).
				Validate(validateNamePrefix),

			huh.NewInput().
				Title("Node name").
				Description("client_id of the node the run verifies").
				Placeholder(DefaultNodeID).
				Value(&result.NodeID),
		),

		// Access
		huh.NewGroup(
			huh.NewInput().
				Title("SSH user").
				Description("Login name on the experiment node (your portal username)").
				Value(&result.User).
				Validate(validateRequired("ssh user")),
		),

		// Provisioning mode
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provisioner mode").
				Description("native: portal RPC in-process | external: drive a separate tool").
				Options(
					huh.NewOption("Native (talk to the portal directly)", ModeNative),
					huh.NewOption("External (invoke a provisioning command)", ModeExternal),
				).
				Value(&result.Mode),
		),

		// External command
		huh.NewGroup(
			huh.NewInput().
				Title("Provisioning command (external mode only)").
				Description("Command that starts the experiment and writes node_ip.txt").
				Placeholder("./provision.sh").
				Value(&result.Command),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}

	return result, nil
}

// ToConfig converts the wizard result to a Config with all defaults
// filled in.
func (r *WizardResult) ToConfig() *Config {
	cfg := New()
	cfg.Project = r.Project
	cfg.Profile = r.Profile
	cfg.NamePrefix = r.NamePrefix
	if r.NodeID != "" {
		cfg.NodeID = r.NodeID
	}
	cfg.User = r.User
	cfg.Provisioner.Mode = r.Mode
	cfg.Provisioner.Command = r.Command
	return cfg
}

// validateRequired rejects empty input.
func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// validateNamePrefix checks the prefix leaves room for the random suffix.
func validateNamePrefix(s string) error {
	if s == "" {
		return fmt.Errorf("name prefix is required")
	}
	if len(s)+naming.SuffixLength > naming.MaxExperimentNameLength {
		return fmt.Errorf("prefix must be at most %d characters", naming.MaxExperimentNameLength-naming.SuffixLength)
	}
	return nil
}
