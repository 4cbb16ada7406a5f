package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/powderci/powder-runner/internal/config"
)

// CheckResult is a single doctor probe outcome.
type CheckResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// DoctorReport is the full environment diagnosis.
type DoctorReport struct {
	Mode    string        `json:"mode"`
	Project string        `json:"project"`
	Profile string        `json:"profile"`
	Checks  []CheckResult `json:"checks"`
	Healthy bool          `json:"healthy"`
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	lookPath = exec.LookPath

	// The portal requires TLS client certificates, so reachability is a
	// plain TCP dial rather than an HTTP request.
	probePortal = func(ctx context.Context, rawURL string) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid portal URL: %w", err)
		}
		host := u.Hostname()
		if host == "" {
			return fmt.Errorf("portal URL %q has no host", rawURL)
		}
		port := u.Port()
		if port == "" {
			port = "443"
		}
		dialer := &net.Dialer{Timeout: 10 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
		if err != nil {
			return err
		}
		return conn.Close()
	}
)

// Doctor diagnoses the run environment: configuration, credential,
// and either the provisioning tool or the portal depending on mode.
func Doctor(ctx context.Context, configPath string, jsonOutput bool) error {
	report := buildDoctorReport(ctx, configPath)

	if jsonOutput {
		if err := printDoctorJSON(report); err != nil {
			return err
		}
	} else {
		printDoctorReport(report)
	}

	if !report.Healthy {
		failed := 0
		for _, check := range report.Checks {
			if !check.OK {
				failed++
			}
		}
		return fmt.Errorf("environment not ready: %d check(s) failed", failed)
	}
	return nil
}

func buildDoctorReport(ctx context.Context, configPath string) *DoctorReport {
	report := &DoctorReport{}

	cfg, err := loadConfig(configPath)
	if err != nil {
		report.Checks = append(report.Checks, CheckResult{
			Name:    "configuration",
			Message: err.Error(),
		})
		return report.finish()
	}
	report.Mode = cfg.Provisioner.Mode
	report.Project = cfg.Project
	report.Profile = cfg.Profile
	report.Checks = append(report.Checks, CheckResult{
		Name:    "configuration",
		OK:      true,
		Message: "valid",
	})

	report.Checks = append(report.Checks, checkSSHUser(cfg))
	report.Checks = append(report.Checks, checkCredential(cfg))

	if cfg.Provisioner.Mode == config.ModeExternal {
		report.Checks = append(report.Checks, checkProvisionTool(cfg))
	} else {
		report.Checks = append(report.Checks, checkPortal(ctx, cfg))
	}

	return report.finish()
}

func (r *DoctorReport) finish() *DoctorReport {
	r.Healthy = true
	for _, check := range r.Checks {
		if !check.OK {
			r.Healthy = false
			break
		}
	}
	return r
}

func checkSSHUser(cfg *config.Config) CheckResult {
	check := CheckResult{Name: "ssh user"}
	if cfg.User == "" {
		check.Message = "not set (set USER or the user config field)"
		return check
	}
	check.OK = true
	check.Message = cfg.User
	return check
}

func checkCredential(cfg *config.Config) CheckResult {
	check := CheckResult{Name: "credential"}

	if _, err := os.Stat(cfg.CertPath); err != nil {
		check.Message = fmt.Sprintf("not found at %s", cfg.CertPath)
		if cfg.PEMBase64 != "" {
			check.Message += "; run 'powder-runner decode-cert'"
		}
		return check
	}

	material, err := loadCredential(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		check.Message = err.Error()
		return check
	}
	leaf, err := material.Leaf()
	if err != nil {
		check.Message = err.Error()
		return check
	}
	if time.Now().After(leaf.NotAfter) {
		check.Message = fmt.Sprintf("certificate expired %s", leaf.NotAfter.Format("2006-01-02"))
		return check
	}

	check.OK = true
	check.Message = fmt.Sprintf("%s, expires %s", leaf.Subject.CommonName, leaf.NotAfter.Format("2006-01-02"))
	return check
}

func checkProvisionTool(cfg *config.Config) CheckResult {
	check := CheckResult{Name: "provisioning tool"}
	path, err := lookPath(cfg.Provisioner.Command)
	if err != nil {
		check.Message = fmt.Sprintf("%s not found on PATH", cfg.Provisioner.Command)
		return check
	}
	check.OK = true
	check.Message = path
	return check
}

func checkPortal(ctx context.Context, cfg *config.Config) CheckResult {
	check := CheckResult{Name: "portal"}
	if err := probePortal(ctx, cfg.PortalURL); err != nil {
		check.Message = err.Error()
		return check
	}
	check.OK = true
	check.Message = cfg.PortalURL
	return check
}

// printDoctorJSON outputs the report as JSON.
func printDoctorJSON(report *DoctorReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// printDoctorReport outputs the report as formatted rows, with emoji
// indicators on interactive terminals and plain markers otherwise.
func printDoctorReport(report *DoctorReport) {
	tty := isInteractiveTTY()

	fmt.Println()
	title := "powder-runner doctor"
	if report.Project != "" {
		title += fmt.Sprintf(": %s/%s (%s mode)", report.Project, report.Profile, report.Mode)
	}
	fmt.Printf("  %s\n", title)
	fmt.Println("  " + strings.Repeat("─", len(title)))

	for _, check := range report.Checks {
		if tty {
			printRow(check.Name, check.OK, check.Message)
		} else {
			printPlainRow(check.Name, check.OK, check.Message)
		}
	}
	fmt.Println()
}

func printRow(name string, ok bool, extra string) {
	indicator := "✅" // green check
	if !ok {
		indicator = "❌" // red X
	}

	if extra != "" {
		fmt.Printf("  %s  %-20s %s\n", indicator, name, extra)
	} else {
		fmt.Printf("  %s  %s\n", indicator, name)
	}
}

func printPlainRow(name string, ok bool, extra string) {
	indicator := "[ok]  "
	if !ok {
		indicator = "[FAIL]"
	}

	if extra != "" {
		fmt.Printf("  %s %-20s %s\n", indicator, name, extra)
	} else {
		fmt.Printf("  %s %s\n", indicator, name)
	}
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
