// Package constants provides centralized constant values used throughout wsforge.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by wsforge inside the parent workspace.
const (
	// ManifestFileName is the name of the workspace manifest file.
	ManifestFileName = "wsforge.yaml"

	// LockFileName is the run lock file at the workspace root. Holding an
	// exclusive lock on it enforces the single-writer rule for the parent
	// working tree.
	LockFileName = ".wsforge.lock"

	// ScaffoldMarkerFileName marks a directory as a wsforge-generated
	// scaffold. Directories without it are never overwritten.
	ScaffoldMarkerFileName = ".wsforge-component"

	// ComposeFileName is the workspace-level container orchestration file.
	ComposeFileName = "docker-compose.yml"

	// AssistantFileName is the workspace-level assistant configuration file.
	AssistantFileName = "AGENTS.md"
)

// Directory names used by wsforge for its own data.
const (
	// ForgeHome is the hidden directory name where wsforge stores its data,
	// created in the user's home directory.
	ForgeHome = ".wsforge"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// CLILogFileName is the rotating log file for all runs.
	CLILogFileName = "wsforge.log"
)

// Version control defaults.
const (
	// DefaultBranch is the canonical primary branch name for every
	// published repository.
	DefaultBranch = "main"

	// DefaultRemote is the canonical remote name.
	DefaultRemote = "origin"

	// InitialCommitMessage is the fixed message for a component's first commit.
	InitialCommitMessage = "Initial scaffold"

	// WorkspaceCommitMessage is the fixed message for the parent workspace
	// commit that records the sub-repository pins.
	WorkspaceCommitMessage = "Assemble workspace"
)

// Timeout and retry configuration.
const (
	// ToolDetectionTimeout bounds the preflight tool detection pass.
	ToolDetectionTimeout = 30 * time.Second

	// DaemonPollInterval is the wait between container daemon liveness polls.
	DaemonPollInterval = 2 * time.Second

	// DaemonPollMaxAttempts bounds daemon startup polling. Polling must fail
	// loudly rather than loop forever.
	DaemonPollMaxAttempts = 15

	// MaxPushAttempts is the maximum number of push attempts for
	// transient failures.
	MaxPushAttempts = 3

	// InitialPushBackoff is the delay before the first push retry.
	InitialPushBackoff = 2 * time.Second

	// MaxPushBackoff caps the exponential push backoff.
	MaxPushBackoff = 30 * time.Second

	// BuildCheckTimeout bounds a component's local build check.
	BuildCheckTimeout = 5 * time.Minute

	// ScaffoldInitTimeout bounds an external scaffold tool invocation.
	ScaffoldInitTimeout = 5 * time.Minute
)

// Log rotation settings for the global log file.
const (
	// LogMaxSizeMB is the maximum size of the log file before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated log files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Tool names checked by the precondition verifier.
const (
	ToolGit    = "git"
	ToolGH     = "gh"
	ToolDocker = "docker"
	ToolNode   = "node"
	ToolNpm    = "npm"
	ToolUV     = "uv"
)

// Minimum tool versions.
const (
	MinVersionGit    = "2.20.0"
	MinVersionGH     = "2.20.0"
	MinVersionDocker = "20.10.0"
	MinVersionNode   = "18.0.0"
	MinVersionNpm    = "9.0.0"
	MinVersionUV     = "0.4.0"
)

// Version flag conventions.
const (
	// VersionFlagStandard is the conventional version flag.
	VersionFlagStandard = "--version"
)
