// Package ssh provides an SSH client for executing commands on testbed nodes.
//
// Nodes come up with sshd some time after the portal reports the experiment
// ready, so connection establishment retries with a linear backoff. The
// client supports key-based authentication, including passphrase-protected
// identity files, and keeps a connection open for multi-command setup flows
// and remote file retrieval.
//
// Host key verification is disabled by default: testbed nodes are provisioned
// fresh for every run and present new host keys each time. Set KnownHostsFile
// to pin keys when targeting long-lived hosts.
package ssh
