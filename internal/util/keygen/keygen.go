// Package keygen generates RSA key pairs for SSH authentication.
//
// Keys are produced in PEM format (private) and OpenSSH authorized_keys
// format (public). The private key is written 0600 so ssh accepts it as an
// identity file; the public key is handed to the provisioning tool so the
// experiment node authorizes the per-run key.
package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// DefaultBits is the key size used when callers do not specify one.
const DefaultBits = 3072

const (
	privateKeyMode = 0o600
	publicKeyMode  = 0o644
)

// KeyPair holds an RSA key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the RSA private key in PEM-encoded PKCS#1 format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
// Common bit sizes are 2048 (minimum recommended) and 4096 (high security).
// Every call draws fresh randomness, so two runs never share a key.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	err = privateKey.Validate()
	if err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privDER := x509.MarshalPKCS1PrivateKey(privateKey)
	privBlock := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: privDER,
	}
	privateKeyPEM := pem.EncodeToMemory(&privBlock)

	publicRsaKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	pubKeyBytes := ssh.MarshalAuthorizedKey(publicRsaKey)

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  pubKeyBytes,
	}, nil
}

// WriteFiles writes the private key to privatePath and the public key to
// publicPath, creating parent directories as needed. The private key is
// written 0600 so ssh does not reject it; the public key is world-readable.
func (kp *KeyPair) WriteFiles(privatePath, publicPath string) error {
	for _, path := range []string{privatePath, publicPath} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	if err := os.WriteFile(privatePath, kp.PrivateKey, privateKeyMode); err != nil {
		return fmt.Errorf("failed to write private key %s: %w", privatePath, err)
	}

	// WriteFile only applies the mode on creation; re-runs must not leave a
	// previously looser mode in place.
	if err := os.Chmod(privatePath, privateKeyMode); err != nil {
		return fmt.Errorf("failed to chmod private key %s: %w", privatePath, err)
	}

	if err := os.WriteFile(publicPath, kp.PublicKey, publicKeyMode); err != nil {
		return fmt.Errorf("failed to write public key %s: %w", publicPath, err)
	}

	return nil
}

// Signer parses the private key into an ssh.Signer for client authentication.
func (kp *KeyPair) Signer() (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated private key: %w", err)
	}
	return signer, nil
}
