// Package setup runs the deploy-node setup flow over an established SSH
// connection: wait for the profile's repository clone to land on the
// node, run the setup command chain with output teed to a remote log,
// fetch the log back, and scan it for the success marker.
//
// The marker in the fetched log is the success criterion, not the chain's
// exit status: the remote pipeline ends in tee, whose exit code says
// nothing about the steps before it.
package setup

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Defaults for the setup flow, matching the deploy profile's layout.
const (
	DefaultRepositoryPath = "/local/repository"
	DefaultRemoteLogPath  = "/tmp/setup_deploy_node.log"
	DefaultLogName        = "setup_deploy_node.log"
	DefaultSuccessMarker  = "Deploy node setup complete!"
	DefaultWaitInterval   = 10 * time.Second
	DefaultWaitTimeout    = 5 * time.Minute
)

// defaultCommands verifies the node end to end without assuming profile
// internals: the repository is listed and the node identifies itself.
var defaultCommands = []string{
	"echo '--- Checking repository ---'",
	"ls -la",
	"echo '--- Running hostname ---'",
	"hostname",
	"echo '--- Running hostname -f ---'",
	"hostname -f",
}

// Conn is the slice of the SSH connection the setup flow needs.
type Conn interface {
	Run(ctx context.Context, command string) (string, error)
	WaitForDir(ctx context.Context, path string, interval, timeout time.Duration) error
	FetchFile(ctx context.Context, remotePath string) ([]byte, error)
}

// Options parameterize the setup flow. Zero values take the defaults.
type Options struct {
	// RepositoryPath is the directory whose appearance signals that the
	// profile's startup clone finished.
	RepositoryPath string
	// WaitInterval and WaitTimeout pace the repository wait.
	WaitInterval time.Duration
	WaitTimeout  time.Duration
	// Commands run inside the repository, chained with &&. The success
	// marker echo is appended automatically.
	Commands []string
	// RemoteLogPath is where the chain's output is teed on the node.
	RemoteLogPath string
	// SuccessMarker must appear in the fetched log for setup to count
	// as succeeded.
	SuccessMarker string
}

func (o *Options) applyDefaults() {
	if o.RepositoryPath == "" {
		o.RepositoryPath = DefaultRepositoryPath
	}
	if o.WaitInterval == 0 {
		o.WaitInterval = DefaultWaitInterval
	}
	if o.WaitTimeout == 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
	if len(o.Commands) == 0 {
		o.Commands = defaultCommands
	}
	if o.RemoteLogPath == "" {
		o.RemoteLogPath = DefaultRemoteLogPath
	}
	if o.SuccessMarker == "" {
		o.SuccessMarker = DefaultSuccessMarker
	}
}

// Result reports what the setup flow observed.
type Result struct {
	// Log holds the fetched remote log. On failure it may be partial or
	// empty, but whatever could be retrieved is here for the artifacts.
	Log []byte
	// MarkerFound reports whether the success marker was in the log.
	MarkerFound bool
}

// Run executes the setup flow on an established connection. The log is
// fetched best-effort even when the chain fails, so the caller can
// archive whatever the node managed to report.
func Run(ctx context.Context, conn Conn, opts Options) (*Result, error) {
	opts.applyDefaults()
	result := &Result{}

	log.Printf("[Setup] Waiting for %s to appear (interval %v, timeout %v)",
		opts.RepositoryPath, opts.WaitInterval, opts.WaitTimeout)
	if err := conn.WaitForDir(ctx, opts.RepositoryPath, opts.WaitInterval, opts.WaitTimeout); err != nil {
		return result, err
	}

	log.Printf("[Setup] Repository present, running setup chain")
	_, runErr := conn.Run(ctx, opts.remoteCommand())

	// The log is wanted even after a failed chain.
	logData, fetchErr := conn.FetchFile(ctx, opts.RemoteLogPath)
	if fetchErr != nil {
		log.Printf("[Setup] Warning: could not retrieve %s: %v", opts.RemoteLogPath, fetchErr)
	} else {
		result.Log = logData
		result.MarkerFound = bytes.Contains(logData, []byte(opts.SuccessMarker))
	}

	if runErr != nil {
		return result, fmt.Errorf("setup command chain failed: %w", runErr)
	}
	if !result.MarkerFound {
		return result, fmt.Errorf("setup did not complete: marker %q not found in %s",
			opts.SuccessMarker, opts.RemoteLogPath)
	}

	log.Printf("[Setup] Setup complete, marker found")
	return result, nil
}

// remoteCommand builds the teed setup chain. The chain runs in one shell
// group so the cd applies to every step, and stderr is folded into the
// log the way an operator running it by hand would see it.
func (o *Options) remoteCommand() string {
	steps := make([]string, 0, len(o.Commands)+2)
	steps = append(steps, fmt.Sprintf("cd %s", shellQuote(o.RepositoryPath)))
	steps = append(steps, o.Commands...)
	steps = append(steps, fmt.Sprintf("echo %s", shellQuote(o.SuccessMarker)))

	chain := strings.Join(steps, " && ")
	return fmt.Sprintf("{ %s; } 2>&1 | tee %s", chain, shellQuote(o.RemoteLogPath))
}

// shellQuote wraps a value in single quotes for the remote shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
