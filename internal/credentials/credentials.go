// Package credentials materializes and parses the CloudLab credential
// bundle (certificate plus private key in a single PEM file) used to
// authenticate against the Powder portal.
package credentials

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File modes for the credential file. The portal credential embeds a
// private key, so it must never be group or world readable.
const (
	FileMode = 0o600
	DirMode  = 0o700
)

// PEM block types found in a CloudLab credential bundle.
const (
	blockCertificate = "CERTIFICATE"
	blockRSAKey      = "RSA PRIVATE KEY"
	blockPrivateKey  = "PRIVATE KEY"
	blockECKey       = "EC PRIVATE KEY"
)

// Material is a parsed CloudLab credential ready for use as a TLS
// client certificate.
type Material struct {
	// Path is the location of the PEM bundle on disk.
	Path string

	certificate tls.Certificate
}

// WriteFromBase64 decodes a base64-encoded PEM bundle and writes it to
// path with owner-only permissions. The decoded bytes are written
// verbatim, so the file round-trips byte for byte with the original
// secret. Returns an error for empty or malformed input.
func WriteFromBase64(encoded, path string) error {
	// CI secret stores often wrap base64 payloads; strip whitespace
	// before strict decoding.
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, encoded)

	if compact == "" {
		return fmt.Errorf("credential secret is empty")
	}

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return fmt.Errorf("failed to decode credential secret: %w", err)
	}
	if len(decoded) == 0 {
		return fmt.Errorf("credential secret decoded to zero bytes")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return fmt.Errorf("failed to create credential directory: %w", err)
		}
	}

	if err := os.WriteFile(path, decoded, FileMode); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}

	// WriteFile does not change the mode of a pre-existing file.
	if err := os.Chmod(path, FileMode); err != nil {
		return fmt.Errorf("failed to set credential file permissions: %w", err)
	}

	return nil
}

// Load reads a PEM bundle from path and assembles a TLS client
// certificate. password decrypts legacy encrypted private keys; pass
// an empty string for unencrypted bundles.
func Load(path, password string) (*Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	cert, err := Parse(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credential file %s: %w", path, err)
	}

	return &Material{Path: path, certificate: cert}, nil
}

// Parse assembles a TLS client certificate from an in-memory PEM
// bundle. The bundle must contain at least one certificate block and
// exactly one private key block; additional certificate blocks are
// treated as intermediates.
func Parse(data []byte, password string) (tls.Certificate, error) {
	var (
		cert     tls.Certificate
		keyBlock *pem.Block
	)

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		switch block.Type {
		case blockCertificate:
			cert.Certificate = append(cert.Certificate, block.Bytes)
		case blockRSAKey, blockPrivateKey, blockECKey:
			if keyBlock != nil {
				return tls.Certificate{}, fmt.Errorf("credential contains multiple private keys")
			}
			keyBlock = block
		}
	}

	if len(cert.Certificate) == 0 {
		return tls.Certificate{}, fmt.Errorf("credential contains no certificate")
	}
	if keyBlock == nil {
		return tls.Certificate{}, fmt.Errorf("credential contains no private key")
	}

	keyDER := keyBlock.Bytes
	if encryptedPEMBlock(keyBlock) {
		if password == "" {
			return tls.Certificate{}, fmt.Errorf("credential key is encrypted but no passphrase was provided")
		}
		decrypted, err := decryptPEMBlock(keyBlock, password)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to decrypt credential key: %w", err)
		}
		keyDER = decrypted
	}

	key, err := parsePrivateKey(keyBlock.Type, keyDER)
	if err != nil {
		return tls.Certificate{}, err
	}
	cert.PrivateKey = key

	return cert, nil
}

// TLSCertificate returns the parsed client certificate.
func (m *Material) TLSCertificate() tls.Certificate {
	return m.certificate
}

// Leaf returns the parsed leaf certificate, primarily for diagnostics
// such as reporting the subject and expiry.
func (m *Material) Leaf() (*x509.Certificate, error) {
	if len(m.certificate.Certificate) == 0 {
		return nil, fmt.Errorf("credential contains no certificate")
	}
	leaf, err := x509.ParseCertificate(m.certificate.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse leaf certificate: %w", err)
	}
	return leaf, nil
}

func parsePrivateKey(blockType string, der []byte) (any, error) {
	switch blockType {
	case blockRSAKey:
		key, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
		}
		return key, nil
	case blockECKey:
		key, err := x509.ParseECPrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC private key: %w", err)
		}
		return key, nil
	default:
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return key, nil
	}
}

func encryptedPEMBlock(block *pem.Block) bool {
	//nolint:staticcheck // CloudLab issues traditional encrypted PEM keys.
	return x509.IsEncryptedPEMBlock(block)
}

func decryptPEMBlock(block *pem.Block, password string) ([]byte, error) {
	//nolint:staticcheck // CloudLab issues traditional encrypted PEM keys.
	return x509.DecryptPEMBlock(block, []byte(password))
}
