package ssh

import (
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/powderci/powder-runner/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 15 * time.Second
	defaultMaxAttempts = 4
	defaultRetryDelay  = 2 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// Passphrase decrypts the private key when the identity file is
	// passphrase protected. Empty for unencrypted keys.
	Passphrase string

	// DialTimeout is the timeout for establishing a single connection,
	// TCP dial and SSH handshake included. If zero, defaultDialTimeout
	// is used.
	DialTimeout time.Duration

	// MaxAttempts is the number of connection attempts before giving up.
	// If zero, defaultMaxAttempts is used.
	MaxAttempts int

	// RetryDelay is the base delay between connection attempts; the wait
	// grows linearly with each failure. If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// KnownHostsFile enables host key verification against the given
	// OpenSSH known_hosts file.
	KnownHostsFile string

	// OnAttempt, when set, is called with the 1-based attempt number
	// before each connection attempt.
	OnAttempt func(attempt int)

	// HostKeyCallback overrides KnownHostsFile when set. If both are
	// empty, host keys are not verified.
	HostKeyCallback ssh.HostKeyCallback
}

// Client opens connections to one remote host.
// It parses the private key once during construction and dials
// on demand per Connect or Execute call.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg

	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxAttempts == 0 {
		configCopy.MaxAttempts = defaultMaxAttempts
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		cb, err := hostKeyCallback(configCopy.KnownHostsFile)
		if err != nil {
			return nil, err
		}
		configCopy.HostKeyCallback = cb
	}

	signer, err := parseIdentity(configCopy.PrivateKey, configCopy.Passphrase)
	if err != nil {
		return nil, err
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// parseIdentity parses the private key, decrypting it when a passphrase
// is supplied. Identity files that bundle a certificate with the key
// (CloudLab credentials) are handled by extracting the key block.
func parseIdentity(key []byte, passphrase string) (ssh.Signer, error) {
	key = privateKeyBlock(key)

	if passphrase != "" {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key with passphrase: %w", err)
		}
		return signer, nil
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("private key is passphrase protected but no passphrase was provided")
		}
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return signer, nil
}

// privateKeyBlock returns the first private-key PEM block in data,
// re-encoded standalone. Credential bundles put the certificate before
// the key, which the ssh parsers trip over. Data without a recognizable
// key block is returned as-is so parse errors stay honest.
func privateKeyBlock(data []byte) []byte {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return data
		}
		if strings.HasSuffix(block.Type, "PRIVATE KEY") {
			return pem.EncodeToMemory(block)
		}
	}
}

// hostKeyCallback resolves the host key policy: verify against a
// known_hosts file when one is configured, otherwise accept any key.
func hostKeyCallback(knownHostsFile string) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // Default for ephemeral testbed nodes
	}

	cb, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts file %s: %w", knownHostsFile, err)
	}
	return cb, nil
}

// Execute opens a connection, runs one command, and closes the
// connection. Returns combined stdout and stderr.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	conn, err := c.Connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	return conn.Run(ctx, command)
}

// Connect establishes a connection with retry logic. The caller owns the
// returned connection and must close it.
func (c *Client) Connect(ctx context.Context) (*Connection, error) {
	addr := net.JoinHostPort(c.config.Host, fmt.Sprintf("%d", c.config.Port))
	var client *ssh.Client

	// Nodes keep refusing connections for a while after the portal
	// reports ready; attempts back off linearly.
	attempt := 0
	err := retry.WithLinearBackoff(ctx, func() error {
		attempt++
		if c.config.OnAttempt != nil {
			c.config.OnAttempt(attempt)
		}
		var dialErr error
		client, dialErr = c.dial(ctx, addr)
		return dialErr
	},
		retry.WithMaxRetries(c.config.MaxAttempts-1),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s after %d attempts: %w",
			addr, c.config.MaxAttempts, err)
	}

	return &Connection{client: client, host: c.config.Host}, nil
}

// dial performs a single connection attempt. The TCP dial honors the
// context; a deadline on the raw connection bounds the SSH handshake,
// which would otherwise hang past any context cancellation.
func (c *Client) dial(ctx context.Context, addr string) (*ssh.Client, error) {
	sshCfg := &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(c.signer),
		},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	dialer := net.Dialer{Timeout: c.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	handshakeDeadline := time.Now().Add(c.config.DialTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(handshakeDeadline) {
		handshakeDeadline = deadline
	}
	_ = conn.SetDeadline(handshakeDeadline)

	cconn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Handshake done; sessions manage their own timeouts from here.
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(cconn, chans, reqs), nil
}
