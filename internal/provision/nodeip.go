package provision

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// ReadNodeIP reads and validates the node address file. A missing,
// empty, or unparseable file is an error.
func ReadNodeIP(path string) (net.IP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node address file %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("node address file %s is empty", path)
	}

	ip := net.ParseIP(text)
	if ip == nil {
		return nil, fmt.Errorf("node address file %s does not contain a valid IP address: %q", path, text)
	}
	return ip, nil
}

// WriteNodeIP writes the node address file with a trailing newline, the
// form shell consumers expect from $(cat node_ip.txt).
func WriteNodeIP(path string, ip net.IP) error {
	if err := os.WriteFile(path, []byte(ip.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write node address file %s: %w", path, err)
	}
	return nil
}
