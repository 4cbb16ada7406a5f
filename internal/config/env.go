package config

import "os"

// Environment variable names. The CLOUDLAB_-prefixed and PASS spellings are
// legacy aliases kept so existing CI secret definitions keep working.
const (
	EnvUser             = "USER"
	EnvCertPassword     = "PWORD"
	EnvCertPasswordAlt  = "PASS"
	EnvCert             = "CERT"
	EnvProject          = "PROJECT_NAME"
	EnvProjectAlt       = "CLOUDLAB_PROJECT_NAME"
	EnvProfile          = "PROFILE_NAME"
	EnvProfileAlt       = "CLOUDLAB_PROFILE_NAME"
	EnvPEMBase64        = "CLOUDLAB_PEM_BASE64"
	EnvSSHKeyPassword   = "KEYPWORD"
	EnvPortalURL        = "POWDER_PORTAL_URL"
	EnvNamePrefix       = "POWDER_NAME_PREFIX"
	EnvNodeID           = "POWDER_NODE_ID"
	EnvProvisionMode    = "POWDER_PROVISION_MODE"
	EnvProvisionCommand = "POWDER_PROVISION_COMMAND"
	EnvS3SecretKey      = "POWDER_S3_SECRET_KEY"
)

// ApplyEnvOverlay overrides config values from the environment. The canonical
// spelling wins when both it and its alias are set.
func (c *Config) ApplyEnvOverlay() {
	if v := os.Getenv(EnvUser); v != "" {
		c.User = v
	}
	if v := firstEnv(EnvCertPassword, EnvCertPasswordAlt); v != "" {
		c.CertPassword = v
	}
	if v := os.Getenv(EnvCert); v != "" {
		c.CertPath = v
	}
	if v := firstEnv(EnvProject, EnvProjectAlt); v != "" {
		c.Project = v
	}
	if v := firstEnv(EnvProfile, EnvProfileAlt); v != "" {
		c.Profile = v
	}
	if v := os.Getenv(EnvPEMBase64); v != "" {
		c.PEMBase64 = v
	}
	if v := os.Getenv(EnvSSHKeyPassword); v != "" {
		c.SSHKeyPassword = v
	}
	if v := os.Getenv(EnvPortalURL); v != "" {
		c.PortalURL = v
	}
	if v := os.Getenv(EnvNamePrefix); v != "" {
		c.NamePrefix = v
	}
	if v := os.Getenv(EnvNodeID); v != "" {
		c.NodeID = v
	}
	if v := os.Getenv(EnvProvisionMode); v != "" {
		c.Provisioner.Mode = v
	}
	if v := os.Getenv(EnvProvisionCommand); v != "" {
		c.Provisioner.Command = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" {
		c.Artifacts.S3.SecretKey = v
	}
}

// ExternalToolEnv returns the environment entries exported to the external
// provisioning tool, in KEY=VALUE form. Both spellings of the project and
// profile variables are exported so either script variant works.
func (c *Config) ExternalToolEnv() []string {
	return []string{
		EnvUser + "=" + c.User,
		EnvCertPassword + "=" + c.CertPassword,
		EnvCertPasswordAlt + "=" + c.CertPassword,
		EnvCert + "=" + c.CertPath,
		EnvProject + "=" + c.Project,
		EnvProjectAlt + "=" + c.Project,
		EnvProfile + "=" + c.Profile,
		EnvProfileAlt + "=" + c.Profile,
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
