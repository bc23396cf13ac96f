// Package health runs the environment checks behind the doctor command and the /health endpoint.
package health

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/config"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/rules"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult `json:"checks"`
	Passed bool          `json:"passed"`
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// RunHealthChecks runs all health checks for cfg. configPath is the local config file, which may be empty.
func RunHealthChecks(cfg *config.Configuration, configPath string) *HealthReport {
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 4),
		Passed: true,
	}

	report.add(CheckConfigFile(configPath))
	report.add(CheckConfigValues(cfg, configPath))
	report.add(CheckRules(cfg.RulesFile))
	report.add(CheckStateDir(cfg.StateDir))

	return report
}

// CheckConfigFile checks that the global and local config files, when present, are well-formed JSON.
func CheckConfigFile(localPath string) CheckResult {
	paths := []string{config.GlobalConfigPath(), localPath}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := config.ValidateJSONSyntax(p); err != nil {
			return CheckResult{
				Name:    "Config file",
				Passed:  false,
				Message: err.Error(),
			}
		}
	}
	return CheckResult{
		Name:    "Config file",
		Passed:  true,
		Message: "config files are valid JSON",
	}
}

// CheckConfigValues checks the loaded configuration against its constraints.
func CheckConfigValues(cfg *config.Configuration, configPath string) CheckResult {
	if err := config.ValidateConfigValues(cfg, configPath); err != nil {
		return CheckResult{
			Name:    "Config values",
			Passed:  false,
			Message: err.Error(),
		}
	}
	return CheckResult{
		Name:    "Config values",
		Passed:  true,
		Message: "configuration values are valid",
	}
}

// CheckRules checks that the rule table loads. An empty path checks the built-in table.
func CheckRules(path string) CheckResult {
	table, err := rules.Load(path)
	if err != nil {
		return CheckResult{
			Name:    "Rules",
			Passed:  false,
			Message: err.Error(),
		}
	}
	source := "built-in rules"
	if path != "" {
		source = path
	}
	return CheckResult{
		Name:   "Rules",
		Passed: true,
		Message: fmt.Sprintf("%s: %d required keys, %d type rules, %d range rules",
			source, len(table.RequiredKeys), len(table.Types), len(table.Ranges)),
	}
}

// CheckStateDir checks that the state directory exists or can be created, and is writable.
func CheckStateDir(dir string) CheckResult {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return CheckResult{
			Name:    "State directory",
			Passed:  false,
			Message: fmt.Sprintf("cannot create %s: %v", dir, err),
		}
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return CheckResult{
			Name:    "State directory",
			Passed:  false,
			Message: fmt.Sprintf("%s is not writable: %v", dir, err),
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	return CheckResult{
		Name:    "State directory",
		Passed:  true,
		Message: fmt.Sprintf("%s is writable", filepath.Clean(dir)),
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var output strings.Builder

	for _, check := range report.Checks {
		mark := "✓"
		if !check.Passed {
			mark = "✗"
		}
		fmt.Fprintf(&output, "%s %s: %s\n", mark, check.Name, check.Message)
	}

	return output.String()
}
