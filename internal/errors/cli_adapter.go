package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrPartialFailure marks a run that completed but left some pages unbuilt.
// The cache is still persisted (failed pages stay unmarked as built).
var ErrPartialFailure = errors.New("build completed with page failures")

// Exit codes used by the CLI. Success is 0.
const (
	ExitFatal   = 1
	ExitPartial = 2
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrPartialFailure) {
		return ExitPartial
	}
	return ExitFatal
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if sge, ok := err.(*SiteGenError); ok {
		return a.formatSiteGen(sge)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatSiteGen formats a SiteGenError for display.
func (a *CLIErrorAdapter) formatSiteGen(err *SiteGenError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if sge, ok := err.(*SiteGenError); ok {
		return sge.Category == CategoryInternal ||
			sge.Category == CategoryRuntime ||
			sge.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if sge, ok := err.(*SiteGenError); ok {
		level := a.slogLevelFromSeverity(sge.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(sge.Category)),
		}

		a.logger.LogAttrs(context.Background(), level, sge.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts SiteGenError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
