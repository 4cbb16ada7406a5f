package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powderci/powder-runner/internal/config"
)

// saveAndRestoreInitFactories saves and restores init factory functions.
func saveAndRestoreInitFactories(t *testing.T) {
	origFileExists := fileExists
	origRunWizard := runWizard
	origWriteConfig := writeConfig

	t.Cleanup(func() {
		fileExists = origFileExists
		runWizard = origRunWizard
		writeConfig = origWriteConfig
	})
}

func TestPrintWelcome(t *testing.T) {
	output := captureOutput(printWelcome)

	assert.Contains(t, output, "powder-runner - CI experiments on the Powder testbed")
	assert.Contains(t, output, "This wizard creates a run configuration")
	assert.Contains(t, output, "Secrets are never written to the file")
}

func TestPrintInitSuccess(t *testing.T) {
	t.Run("native mode", func(t *testing.T) {
		result := &config.WizardResult{
			Project:    "PowderProfiles",
			Profile:    "oai-nos1-wired",
			NamePrefix: "ci-",
			NodeID:     "deploy-node",
			User:       "powder",
			Mode:       config.ModeNative,
		}

		output := captureOutput(func() {
			printInitSuccess("powder-runner.yaml", result.ToConfig())
		})

		assert.Contains(t, output, "Configuration saved!")
		assert.Contains(t, output, "powder-runner.yaml")
		assert.Contains(t, output, "Project:  PowderProfiles")
		assert.Contains(t, output, "Profile:  oai-nos1-wired")
		assert.Contains(t, output, "Prefix:   ci-")
		assert.Contains(t, output, "SSH user: powder")
		assert.Contains(t, output, "Mode:     native")
		assert.NotContains(t, output, "Command:")
		assert.Contains(t, output, config.EnvPEMBase64)
		assert.Contains(t, output, "powder-runner doctor")
		assert.Contains(t, output, "powder-runner run")
	})

	t.Run("external mode shows command", func(t *testing.T) {
		result := &config.WizardResult{
			Project:    "PowderProfiles",
			Profile:    "oai-nos1-wired",
			NamePrefix: "exp-",
			User:       "powder",
			Mode:       config.ModeExternal,
			Command:    "./startExperiment.sh",
		}

		output := captureOutput(func() {
			printInitSuccess("powder-runner.yaml", result.ToConfig())
		})

		assert.Contains(t, output, "Mode:     external")
		assert.Contains(t, output, "Command:  ./startExperiment.sh")
	})
}

func TestInit_WithInjection(t *testing.T) {
	saveAndRestoreInitFactories(t)

	validResult := &config.WizardResult{
		Project:    "PowderProfiles",
		Profile:    "oai-nos1-wired",
		NamePrefix: "exp-",
		NodeID:     "deploy-node",
		User:       "powder",
		Mode:       config.ModeNative,
	}

	t.Run("success flow - new file", func(t *testing.T) {
		fileExists = func(_ string) bool { return false }
		runWizard = func(_ context.Context) (*config.WizardResult, error) {
			return validResult, nil
		}

		var gotCfg *config.Config
		var gotPath string
		writeConfig = func(cfg *config.Config, path string) error {
			gotCfg = cfg
			gotPath = path
			return nil
		}

		output := captureOutput(func() {
			err := Init(context.Background(), "powder-runner.yaml")
			require.NoError(t, err)
		})

		assert.Equal(t, "powder-runner.yaml", gotPath)
		require.NotNil(t, gotCfg)
		assert.Equal(t, "powder", gotCfg.User)
		assert.Equal(t, config.ModeNative, gotCfg.Provisioner.Mode)
		assert.NotContains(t, output, "already exists")
	})

	t.Run("existing file warns", func(t *testing.T) {
		fileExists = func(_ string) bool { return true }
		runWizard = func(_ context.Context) (*config.WizardResult, error) {
			return validResult, nil
		}
		writeConfig = func(_ *config.Config, _ string) error { return nil }

		output := captureOutput(func() {
			err := Init(context.Background(), "existing.yaml")
			require.NoError(t, err)
		})

		assert.Contains(t, output, "existing.yaml already exists and will be overwritten")
	})

	t.Run("wizard error", func(t *testing.T) {
		fileExists = func(_ string) bool { return false }
		runWizard = func(_ context.Context) (*config.WizardResult, error) {
			return nil, errors.New("user aborted")
		}

		_ = captureOutput(func() {
			err := Init(context.Background(), "powder-runner.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "wizard failed")
		})
	})

	t.Run("write config error", func(t *testing.T) {
		fileExists = func(_ string) bool { return false }
		runWizard = func(_ context.Context) (*config.WizardResult, error) {
			return validResult, nil
		}
		writeConfig = func(_ *config.Config, _ string) error {
			return errors.New("permission denied")
		}

		_ = captureOutput(func() {
			err := Init(context.Background(), "/readonly/powder-runner.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to write config")
		})
	})
}
