package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func TestSiteGenError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SiteGenError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestSiteGenError_WithContext(t *testing.T) {
	err := RenderError("posts/broken.md", fmt.Errorf("bad template")).
		WithContext("template", "page.html")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["path"] != "posts/broken.md" {
		t.Errorf("Context[path] = %v, want posts/broken.md", err.Context["path"])
	}
	if err.Context["template"] != "page.html" {
		t.Errorf("Context[template] = %v, want page.html", err.Context["template"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	renderErr := New(CategoryRender, SeverityError, "render error")
	standardErr := fmt.Errorf("standard error")

	if !IsCategory(configErr, CategoryConfig) {
		t.Error("expected config error to match CategoryConfig")
	}
	if IsCategory(renderErr, CategoryConfig) {
		t.Error("render error should not match CategoryConfig")
	}
	if IsCategory(standardErr, CategoryConfig) {
		t.Error("standard error should not match any category")
	}
	if GetCategory(standardErr) != CategoryInternal {
		t.Errorf("GetCategory(standard) = %v, want internal", GetCategory(standardErr))
	}
}

func TestSiteGenError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := OutputError("write", cause)

	if !stdErrors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	if got := a.ExitCodeFor(nil); got != 0 {
		t.Errorf("ExitCodeFor(nil) = %d, want 0", got)
	}
	if got := a.ExitCodeFor(ErrPartialFailure); got != ExitPartial {
		t.Errorf("ExitCodeFor(partial) = %d, want %d", got, ExitPartial)
	}
	if got := a.ExitCodeFor(fmt.Errorf("wrapped: %w", ErrPartialFailure)); got != ExitPartial {
		t.Errorf("ExitCodeFor(wrapped partial) = %d, want %d", got, ExitPartial)
	}
	if got := a.ExitCodeFor(OutputError("mkdir", fmt.Errorf("permission denied"))); got != ExitFatal {
		t.Errorf("ExitCodeFor(fatal) = %d, want %d", got, ExitFatal)
	}
}

// ctxRecordingHandler captures the context handed to Handle. Context-aware
// slog handlers are entitled to a non-nil context.
type ctxRecordingHandler struct {
	slog.Handler
	gotCtx *bool
}

func (h ctxRecordingHandler) Handle(ctx context.Context, r slog.Record) error {
	*h.gotCtx = ctx != nil
	return h.Handler.Handle(ctx, r)
}

func TestLogErrorPassesContextToHandler(t *testing.T) {
	var gotCtx bool
	h := ctxRecordingHandler{
		Handler: slog.NewTextHandler(io.Discard, nil),
		gotCtx:  &gotCtx,
	}
	a := NewCLIErrorAdapter(false, slog.New(h))

	a.logError(New(CategoryInternal, SeverityFatal, "boom"))
	if !gotCtx {
		t.Error("expected logError to pass a non-nil context to the handler")
	}
}
