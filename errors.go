package statik

import "fmt"

// Error kinds (spec §7). ConfigError, StoreError, and PathResolutionError
// are concrete types so callers can type-switch; ParseError is
// internal/lang's type (it is produced there) and reaches callers through
// IndexStats.ParseErrors; RuleViolation is not an error (it's the
// Diagnostic type returned by the Rule Engine); Cancelled is a sentinel.

// ConfigError reports an invalid configuration value: unknown severity,
// a missing required field, or a malformed rule. Fatal to the invoking
// operation.
type ConfigError struct {
	File    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error at %s:%d: %s", e.File, e.Line, e.Message)
}

// StoreError wraps a fatal index-store failure (I/O, schema mismatch).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store error during %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// PathResolutionError is demoted to a dangling import at the point of
// extraction (spec §7); it is exported so callers that want to surface
// resolution failures explicitly can still recognize the case.
type PathResolutionError struct {
	FromPath string
	Specifier string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve import %q from %s", e.Specifier, e.FromPath)
}

// ErrCancelled is returned when a cancellation flag tripped mid-operation
// (spec §5, §7). Index checks for cancellation between files; before
// returning it, Index removes the File rows it already wrote for files
// whose symbols, references, and imports were not yet committed.
var ErrCancelled = fmt.Errorf("operation cancelled")

// Severity levels for rule diagnostics (spec §4.G), ordered
// info < warning < error.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// ParseSeverity parses a TOML/CLI severity string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return 0, &ConfigError{Message: fmt.Sprintf("unknown severity %q", s)}
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}
