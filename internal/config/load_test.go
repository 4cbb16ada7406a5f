package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_SparseFileGetsDefaults(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "project: MyProject\nuser: powder\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "MyProject", cfg.Project)
	assert.Equal(t, "powder", cfg.User)
	assert.Equal(t, DefaultProfile, cfg.Profile)
	assert.Equal(t, DefaultPortalURL, cfg.PortalURL)
	assert.Equal(t, ModeNative, cfg.Provisioner.Mode)
	assert.Equal(t, DefaultSSHPort, cfg.SSH.Port)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFile_BadYAML(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "project: [unclosed\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestSave_ExcludesSecrets(t *testing.T) {
	cfg := New()
	cfg.User = "powder"
	cfg.CertPassword = "hunter2"
	cfg.SSHKeyPassword = "keypass"
	cfg.PEMBase64 = "aGVsbG8="
	cfg.Artifacts.S3.SecretKey = "s3secret"

	path := filepath.Join(t.TempDir(), DefaultConfigFilename)
	require.NoError(t, Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.NotContains(t, text, "hunter2")
	assert.NotContains(t, text, "keypass")
	assert.NotContains(t, text, "aGVsbG8=")
	assert.NotContains(t, text, "s3secret")
	assert.Contains(t, text, "user: powder")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := New()
	cfg.Project = "MyProject"
	cfg.NamePrefix = "ci-"
	cfg.User = "powder"
	cfg.Provisioner.Mode = ModeExternal
	cfg.Provisioner.Command = "./startExperiment.sh"
	cfg.Artifacts.S3.Bucket = "powder-artifacts"

	path := filepath.Join(t.TempDir(), DefaultConfigFilename)
	require.NoError(t, Save(cfg, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MyProject", loaded.Project)
	assert.Equal(t, "ci-", loaded.NamePrefix)
	assert.Equal(t, "powder", loaded.User)
	assert.Equal(t, ModeExternal, loaded.Provisioner.Mode)
	assert.Equal(t, "./startExperiment.sh", loaded.Provisioner.Command)
	assert.Equal(t, "powder-artifacts", loaded.Artifacts.S3.Bucket)
	assert.Empty(t, loaded.CertPassword)
}

func TestFindConfigFile(t *testing.T) {
	t.Run("current directory", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfigFile(t, dir, "project: X\n")
		t.Chdir(dir)

		found, err := FindConfigFile()
		require.NoError(t, err)
		// The tempdir may sit behind a symlink (macOS), so compare bases.
		assert.Equal(t, filepath.Base(path), filepath.Base(found))
	})

	t.Run("parent directory", func(t *testing.T) {
		parent := t.TempDir()
		writeConfigFile(t, parent, "project: X\n")
		child := filepath.Join(parent, "repo", "ci")
		require.NoError(t, os.MkdirAll(child, 0o755))
		t.Chdir(child)

		found, err := FindConfigFile()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfigFilename, filepath.Base(found))
	})

	t.Run("not found", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := FindConfigFile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestLoad_ExplicitPath(t *testing.T) {
	clearRunnerEnv(t)
	t.Chdir(t.TempDir())

	path := writeConfigFile(t, t.TempDir(), "project: FromFile\nuser: powder\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "FromFile", cfg.Project)
	assert.Equal(t, "powder", cfg.User)
}

func TestLoad_AutoDetect(t *testing.T) {
	clearRunnerEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, "project: Detected\n")
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Detected", cfg.Project)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	clearRunnerEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProject, cfg.Project)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearRunnerEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, "project: FromFile\nprofile: file-profile\n")
	t.Chdir(dir)

	t.Setenv(EnvProject, "FromEnv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "FromEnv", cfg.Project)
	assert.Equal(t, "file-profile", cfg.Profile)
}

func TestLoad_DotEnv(t *testing.T) {
	clearRunnerEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	// t.Setenv registered the restore; unset so the .env value is seen.
	os.Unsetenv(EnvNodeID)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POWDER_NODE_ID=dotenv-node\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-node", cfg.NodeID)
}

func TestLoad_ValidationFailure(t *testing.T) {
	clearRunnerEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv(EnvProvisionMode, "managed")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
