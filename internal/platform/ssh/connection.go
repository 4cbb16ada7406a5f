package ssh

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Connection is an established SSH connection. It supports running
// multiple commands and retrieving files without re-dialing, which the
// node setup flow needs (probe, long setup chain, log retrieval).
type Connection struct {
	client *ssh.Client
	host   string
}

// Close tears down the connection.
func (c *Connection) Close() error {
	return c.client.Close()
}

// Run executes a command and returns combined stdout and stderr. When
// the context ends before the command does, the remote process is
// killed and the context error is returned.
func (c *Connection) Run(ctx context.Context, command string) (string, error) {
	out, err := c.exec(ctx, command, true)
	if err != nil {
		return out, fmt.Errorf("command failed on %s: %w\nCommand: %s\nOutput: %s",
			c.host, err, command, out)
	}
	return out, nil
}

// Output executes a command and returns stdout only. Used where stderr
// noise would corrupt the result, such as file retrieval.
func (c *Connection) Output(ctx context.Context, command string) (string, error) {
	out, err := c.exec(ctx, command, false)
	if err != nil {
		return out, fmt.Errorf("command failed on %s: %w\nCommand: %s", c.host, err, command)
	}
	return out, nil
}

// FetchFile reads a remote file over the connection. x/crypto/ssh has no
// file-transfer subsystem, so the file is streamed through a remote cat.
func (c *Connection) FetchFile(ctx context.Context, remotePath string) ([]byte, error) {
	out, err := c.exec(ctx, fmt.Sprintf("cat %s", shellQuote(remotePath)), false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from %s: %w", remotePath, c.host, err)
	}
	return []byte(out), nil
}

// WaitForDir polls until the remote directory exists, checking every
// interval, up to the timeout. Probe failures count as "not yet": early
// in boot the node may tear down sessions while services start.
func (c *Connection) WaitForDir(ctx context.Context, path string, interval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := c.exec(ctx, fmt.Sprintf("test -d %s", shellQuote(path)), true)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("wait for %s on %s canceled: %w", path, c.host, ctx.Err())
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s did not appear on %s within %v", path, c.host, timeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s on %s canceled: %w", path, c.host, ctx.Err())
		case <-time.After(interval):
		}
	}
}

// exec runs one command in a fresh session. combined selects combined
// stdout+stderr capture over stdout-only.
func (c *Connection) exec(ctx context.Context, command string, combined bool) (string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session on %s: %w", c.host, err)
	}
	defer func() { _ = session.Close() }()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)

	go func() {
		var out []byte
		var runErr error
		if combined {
			out, runErr = session.CombinedOutput(command)
		} else {
			out, runErr = session.Output(command)
		}
		done <- result{out: out, err: runErr}
	}()

	select {
	case <-ctx.Done():
		// Best-effort terminate the remote process.
		_ = session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case r := <-done:
		return string(r.out), r.err
	}
}

// shellQuote wraps a path in single quotes for the remote shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
