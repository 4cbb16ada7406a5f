package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults for the experiment parameters. Project and profile point at the
// public Powder profile the CI pipeline exercises; the node name matches the
// profile's rspec.
const (
	DefaultProject       = "PowderProfiles"
	DefaultProfile       = "oai-nos1-wired"
	DefaultNamePrefix    = "exp-"
	DefaultNodeID        = "deploy-node"
	DefaultPortalURL     = "https://boss.emulab.net:3069/usr/testbed"
	DefaultCertPath      = "cloudlab.pem"
	DefaultNodeIPFile    = "node_ip.txt"
	DefaultArtifactsDir  = "artifacts"
	DefaultSSHPort       = 22
	DefaultPublicKeyFile = "public_key.txt"
)

// Provisioner modes.
const (
	ModeNative   = "native"
	ModeExternal = "external"
)

// Config holds the runner configuration.
type Config struct {
	// Project is the portal project the experiment is started under.
	Project string `yaml:"project"`
	// Profile is the portal profile to instantiate.
	Profile string `yaml:"profile"`
	// NamePrefix is prepended to the random experiment-name suffix.
	NamePrefix string `yaml:"name_prefix"`
	// NodeID is the client_id of the node the run verifies and sets up.
	NodeID string `yaml:"node_id"`
	// User is the login name used for SSH sessions on the node.
	User string `yaml:"user"`
	// CertPath is the CloudLab credential PEM (certificate + private key).
	CertPath string `yaml:"cert_path"`
	// PortalURL is the portal XML-RPC endpoint.
	PortalURL string `yaml:"portal_url"`

	// CertPassword decrypts the credential's private key. Env only (PWORD,
	// alias PASS); secrets never live in the YAML file.
	CertPassword string `yaml:"-"`
	// SSHKeyPassword decrypts the SSH identity file if it is passphrase
	// protected. Env only (KEYPWORD).
	SSHKeyPassword string `yaml:"-"`
	// PEMBase64 is the base64-encoded credential delivered through the
	// CLOUDLAB_PEM_BASE64 secret. Env only.
	PEMBase64 string `yaml:"-"`

	Provisioner ProvisionerConfig `yaml:"provisioner"`
	SSH         SSHConfig         `yaml:"ssh"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ProvisionerConfig selects and parameterizes the provisioning step.
type ProvisionerConfig struct {
	// Mode is "native" (portal RPC in-process) or "external" (run Command).
	Mode string `yaml:"mode"`
	// Command is the external provisioning tool. Required in external mode.
	Command string `yaml:"command"`
	// Args are extra arguments passed to Command.
	Args []string `yaml:"args,omitempty"`
	// NodeIPFile is where the provisioned node's address is written/read.
	NodeIPFile string `yaml:"node_ip_file"`
}

// SSHConfig parameterizes SSH sessions against the experiment node.
type SSHConfig struct {
	// IdentityFile is the private key used for authentication. Empty means
	// mode-dependent: the per-run session key in external mode, the CloudLab
	// credential in native mode.
	IdentityFile string `yaml:"identity_file"`
	// KnownHostsFile enables host key verification against the given file.
	// Empty disables verification; testbed nodes get fresh host keys on
	// every provisioning, so there is nothing stable to pin by default.
	KnownHostsFile string `yaml:"known_hosts_file,omitempty"`
	// Port is the SSH port on the node.
	Port int `yaml:"port"`
	// SessionKeyFile is where the per-run private key is written. Empty
	// means ~/.ssh/id_rsa, the path plain ssh invocations by external
	// tooling pick up without flags.
	SessionKeyFile string `yaml:"session_key_file,omitempty"`
	// PublicKeyFile is where the per-run public key is written for the
	// provisioning tool to install on the node.
	PublicKeyFile string `yaml:"public_key_file,omitempty"`
}

// ArtifactsConfig controls where run artifacts land.
type ArtifactsConfig struct {
	// Dir is the local directory collected artifacts are written to.
	Dir string `yaml:"dir"`
	// S3 optionally mirrors the artifacts to object storage.
	S3 S3Config `yaml:"s3,omitempty"`
}

// S3Config describes an S3-compatible artifact store. Upload is enabled when
// Bucket is non-empty.
type S3Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	// SecretKey comes from the environment (POWDER_S3_SECRET_KEY).
	SecretKey string `yaml:"-"`
}

// MetricsConfig controls run metrics emission.
type MetricsConfig struct {
	// File is the node-exporter textfile the run metrics are written to.
	// Empty disables metrics.
	File string `yaml:"file,omitempty"`
}

// Enabled reports whether S3 upload is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Project:    DefaultProject,
		Profile:    DefaultProfile,
		NamePrefix: DefaultNamePrefix,
		NodeID:     DefaultNodeID,
		CertPath:   DefaultCertPath,
		PortalURL:  DefaultPortalURL,
		Provisioner: ProvisionerConfig{
			Mode:       ModeNative,
			NodeIPFile: DefaultNodeIPFile,
		},
		SSH: SSHConfig{
			Port:          DefaultSSHPort,
			PublicKeyFile: DefaultPublicKeyFile,
		},
		Artifacts: ArtifactsConfig{
			Dir: DefaultArtifactsDir,
		},
	}
}

// applyDefaults fills zero values after YAML decoding so a sparse file still
// yields a complete config.
func (c *Config) applyDefaults() {
	defaults := New()

	if c.Project == "" {
		c.Project = defaults.Project
	}
	if c.Profile == "" {
		c.Profile = defaults.Profile
	}
	if c.NamePrefix == "" {
		c.NamePrefix = defaults.NamePrefix
	}
	if c.NodeID == "" {
		c.NodeID = defaults.NodeID
	}
	if c.CertPath == "" {
		c.CertPath = defaults.CertPath
	}
	if c.PortalURL == "" {
		c.PortalURL = defaults.PortalURL
	}
	if c.Provisioner.Mode == "" {
		c.Provisioner.Mode = defaults.Provisioner.Mode
	}
	if c.Provisioner.NodeIPFile == "" {
		c.Provisioner.NodeIPFile = defaults.Provisioner.NodeIPFile
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = defaults.SSH.Port
	}
	if c.SSH.PublicKeyFile == "" {
		c.SSH.PublicKeyFile = defaults.SSH.PublicKeyFile
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = defaults.Artifacts.Dir
	}
}

// SSHIdentityFile resolves the identity file for SSH sessions: the explicit
// setting when present, otherwise the mode default (sessionKeyPath for
// external mode, the CloudLab credential for native mode).
func (c *Config) SSHIdentityFile(sessionKeyPath string) string {
	if c.SSH.IdentityFile != "" {
		return c.SSH.IdentityFile
	}
	if c.Provisioner.Mode == ModeExternal {
		return sessionKeyPath
	}
	return c.CertPath
}

// SessionKeyPath resolves where the per-run private key is written: the
// configured path, or ~/.ssh/id_rsa.
func (c *Config) SessionKeyPath() (string, error) {
	if c.SSH.SessionKeyFile != "" {
		return c.SSH.SessionKeyFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory for session key: %w", err)
	}
	return filepath.Join(home, ".ssh", "id_rsa"), nil
}
