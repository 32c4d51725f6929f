// Package preflight verifies environment preconditions before provisioning.
package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wsforge/wsforge/internal/constants"
)

// Version parsing regexes, compiled once at package init.
//
//nolint:gochecknoglobals // compiled once, read-only after init
var (
	gitVersionRe     = regexp.MustCompile(`git version (\d+\.\d+(?:\.\d+)?)`)
	ghVersionRe      = regexp.MustCompile(`gh version (\d+\.\d+(?:\.\d+)?)`)
	dockerVersionRe  = regexp.MustCompile(`Docker version (\d+\.\d+(?:\.\d+)?)`)
	nodeVersionRe    = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)
	uvVersionRe      = regexp.MustCompile(`uv (\d+\.\d+(?:\.\d+)?)`)
	genericVersionRe = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)
)

// ToolStatus represents the installation status of an external tool.
type ToolStatus int

const (
	// ToolStatusMissing indicates the tool is not installed.
	ToolStatusMissing ToolStatus = iota

	// ToolStatusInstalled indicates the tool is installed and meets version requirements.
	ToolStatusInstalled

	// ToolStatusOutdated indicates the tool is installed but below the minimum version.
	ToolStatusOutdated
)

// maxVersionSegments is the number of segments in a semantic version (major.minor.patch).
const maxVersionSegments = 3

// String returns a human-readable representation of the tool status.
func (s ToolStatus) String() string {
	switch s {
	case ToolStatusInstalled:
		return "installed"
	case ToolStatusMissing:
		return "missing"
	case ToolStatusOutdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for human-readable JSON output.
func (s ToolStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Tool represents an external tool the provisioner depends on.
type Tool struct {
	// Name is the tool identifier (e.g., "git", "docker").
	Name string `json:"name"`

	// Required indicates if the tool is mandatory for provisioning.
	Required bool `json:"required"`

	// MinVersion is the minimum required version (semver format).
	MinVersion string `json:"min_version"`

	// CurrentVersion is the detected installed version.
	CurrentVersion string `json:"current_version"`

	// Status is the current installation status.
	Status ToolStatus `json:"status"`

	// InstallHint provides installation instructions for missing tools.
	InstallHint string `json:"install_hint"`
}

// ToolDetectionResult holds the results of detecting all tools.
type ToolDetectionResult struct {
	// Tools contains the detection result for each tool.
	Tools []Tool `json:"tools"`

	// HasMissingRequired indicates if any required tools are missing or outdated.
	HasMissingRequired bool `json:"has_missing_required"`
}

// MissingRequiredTools returns a list of required tools that are missing or outdated.
func (r *ToolDetectionResult) MissingRequiredTools() []Tool {
	var missing []Tool
	for _, tool := range r.Tools {
		if tool.Required && (tool.Status == ToolStatusMissing || tool.Status == ToolStatusOutdated) {
			missing = append(missing, tool)
		}
	}
	return missing
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the PATH.
	LookPath(file string) (string, error)

	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// DefaultCommandExecutor implements CommandExecutor using os/exec.
type DefaultCommandExecutor struct{}

// LookPath searches for an executable in the PATH.
func (e *DefaultCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *DefaultCommandExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// ToolDetector detects the installation status of external tools.
type ToolDetector interface {
	// Detect checks all configured tools and returns their status.
	Detect(ctx context.Context) (*ToolDetectionResult, error)
}

// DefaultToolDetector implements ToolDetector.
type DefaultToolDetector struct {
	executor CommandExecutor
}

// NewToolDetector creates a new DefaultToolDetector with the default executor.
func NewToolDetector() *DefaultToolDetector {
	return &DefaultToolDetector{
		executor: &DefaultCommandExecutor{},
	}
}

// NewToolDetectorWithExecutor creates a new DefaultToolDetector with a custom executor.
func NewToolDetectorWithExecutor(executor CommandExecutor) *DefaultToolDetector {
	return &DefaultToolDetector{
		executor: executor,
	}
}

// toolConfig holds the configuration for detecting a specific tool.
type toolConfig struct {
	name        string
	command     string
	versionFlag string
	minVersion  string
	required    bool
	installHint string
	parseFunc   func(output string) string
}

// getToolConfigs returns the configuration for all tools to detect.
func getToolConfigs() []toolConfig {
	return []toolConfig{
		{
			name:        constants.ToolGit,
			command:     constants.ToolGit,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionGit,
			required:    true,
			installHint: "Install Git from https://git-scm.com/downloads (version 2.20+)",
			parseFunc:   parseGitVersion,
		},
		{
			name:        constants.ToolGH,
			command:     constants.ToolGH,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionGH,
			required:    true,
			installHint: "Install GitHub CLI: brew install gh (version 2.20+)",
			parseFunc:   parseGHVersion,
		},
		{
			name:        constants.ToolDocker,
			command:     constants.ToolDocker,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionDocker,
			required:    true,
			installHint: "Install Docker Desktop from https://docs.docker.com/get-docker/",
			parseFunc:   parseDockerVersion,
		},
		{
			name:        constants.ToolNode,
			command:     constants.ToolNode,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionNode,
			required:    true,
			installHint: "Install Node.js from https://nodejs.org/ (version 18+)",
			parseFunc:   parseNodeVersion,
		},
		{
			name:        constants.ToolNpm,
			command:     constants.ToolNpm,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionNpm,
			required:    true,
			installHint: "npm ships with Node.js, upgrade via: npm install -g npm",
			parseFunc:   parseGenericVersion,
		},
		{
			name:        constants.ToolUV,
			command:     constants.ToolUV,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionUV,
			required:    true,
			installHint: "Install uv: curl -LsSf https://astral.sh/uv/install.sh | sh",
			parseFunc:   parseUVVersion,
		},
	}
}

// Detect checks all configured tools concurrently and returns their status.
func (d *DefaultToolDetector) Detect(ctx context.Context) (*ToolDetectionResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	detectCtx, cancel := context.WithTimeout(ctx, constants.ToolDetectionTimeout)
	defer cancel()

	configs := getToolConfigs()
	result := &ToolDetectionResult{
		Tools: make([]Tool, len(configs)),
	}

	g, gCtx := errgroup.WithContext(detectCtx)

	// Each goroutine writes its own slot so the report keeps config order.
	for i, cfg := range configs {
		g.Go(func() error {
			result.Tools[i] = d.detectTool(gCtx, cfg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to detect tools: %w", err)
	}

	for _, tool := range result.Tools {
		if tool.Required && (tool.Status == ToolStatusMissing || tool.Status == ToolStatusOutdated) {
			result.HasMissingRequired = true
			break
		}
	}

	return result, nil
}

// detectTool detects a single tool's status.
func (d *DefaultToolDetector) detectTool(ctx context.Context, cfg toolConfig) Tool {
	tool := Tool{
		Name:        cfg.name,
		Required:    cfg.required,
		MinVersion:  cfg.minVersion,
		InstallHint: cfg.installHint,
		Status:      ToolStatusMissing,
	}

	_, err := d.executor.LookPath(cfg.command)
	if err != nil {
		return tool
	}

	output, err := d.executor.Run(ctx, cfg.command, cfg.versionFlag)
	if err != nil {
		// Tool exists but version command failed - treat as installed without version info
		tool.Status = ToolStatusInstalled
		tool.CurrentVersion = "unknown"
		return tool
	}

	tool.CurrentVersion = cfg.parseFunc(output)
	if tool.CurrentVersion == "" {
		tool.CurrentVersion = "unknown"
		tool.Status = ToolStatusInstalled
		return tool
	}

	if cfg.minVersion != "" {
		if CompareVersions(tool.CurrentVersion, cfg.minVersion) < 0 {
			tool.Status = ToolStatusOutdated
		} else {
			tool.Status = ToolStatusInstalled
		}
	} else {
		tool.Status = ToolStatusInstalled
	}

	return tool
}

// parseGitVersion parses "git version 2.39.0" → "2.39.0"
func parseGitVersion(output string) string {
	if matches := gitVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// parseGHVersion parses "gh version 2.62.0 (2024-11-06)" → "2.62.0"
func parseGHVersion(output string) string {
	if matches := ghVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// parseDockerVersion parses "Docker version 27.3.1, build ce12230" → "27.3.1"
func parseDockerVersion(output string) string {
	if matches := dockerVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// parseNodeVersion parses "v22.11.0" → "22.11.0"
func parseNodeVersion(output string) string {
	if matches := nodeVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// parseUVVersion parses "uv 0.5.14 (bb7af57b8 2025-01-03)" → "0.5.14"
func parseUVVersion(output string) string {
	if matches := uvVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// parseGenericVersion extracts a version number from generic output.
func parseGenericVersion(output string) string {
	if matches := genericVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// CompareVersions compares two semantic versions.
// Returns:
//
//	-1 if current < required
//	 0 if current == required
//	 1 if current > required
func CompareVersions(current, required string) int {
	current = strings.TrimPrefix(current, "v")
	required = strings.TrimPrefix(required, "v")

	currentParts := parseVersionParts(current)
	requiredParts := parseVersionParts(required)

	for i := 0; i < maxVersionSegments; i++ {
		if currentParts[i] < requiredParts[i] {
			return -1
		}
		if currentParts[i] > requiredParts[i] {
			return 1
		}
	}

	return 0
}

// parseVersionParts parses a version string into [major, minor, patch].
func parseVersionParts(version string) [maxVersionSegments]int {
	var parts [maxVersionSegments]int
	segments := strings.Split(version, ".")

	for i := 0; i < len(segments) && i < maxVersionSegments; i++ {
		numStr := segments[i]
		for j, c := range numStr {
			if c < '0' || c > '9' {
				numStr = numStr[:j]
				break
			}
		}
		if numStr != "" {
			parts[i], _ = strconv.Atoi(numStr)
		}
	}

	return parts
}

// FormatMissingToolsError creates a formatted error message for missing tools.
func FormatMissingToolsError(missing []Tool) string {
	if len(missing) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing required tools:\n\n")

	for _, tool := range missing {
		status := "missing"
		if tool.Status == ToolStatusOutdated {
			status = fmt.Sprintf("outdated (have %s, need %s)", tool.CurrentVersion, tool.MinVersion)
		}
		sb.WriteString(fmt.Sprintf("  • %s: %s\n", tool.Name, status))
		sb.WriteString(fmt.Sprintf("    Install: %s\n\n", tool.InstallHint))
	}

	return sb.String()
}
