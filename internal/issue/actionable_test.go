// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such file")
	err := NewErrorContext().
		WithOperation("load resolver settings").
		WithResource("ivysettings.xml").
		Wrap(cause).
		BuildError()

	want := "failed to load resolver settings: ivysettings.xml: no such file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("ActionableError should unwrap to its cause")
	}
}

func TestActionableErrorFormat(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection refused")
	wrapped := fmt.Errorf("fetch settings: %w", inner)
	ae := NewErrorContext().
		WithOperation("evaluate dependencies").
		WithSuggestion("Check the settings URL").
		WithSuggestion("Verify network access to the repository").
		Wrap(wrapped).
		Build()

	concise := ae.Format(false)
	if !strings.Contains(concise, "Check the settings URL") {
		t.Errorf("suggestions missing from format: %q", concise)
	}
	if strings.Contains(concise, "Error chain") {
		t.Errorf("non-verbose format should not include the chain: %q", concise)
	}

	verbose := ae.Format(true)
	if !strings.Contains(verbose, "Error chain") {
		t.Errorf("verbose format should include the chain: %q", verbose)
	}
	if !strings.Contains(verbose, "connection refused") {
		t.Errorf("verbose format should include the innermost error: %q", verbose)
	}
}

func TestBuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("builder without an operation should yield nil, got %v", err)
	}
}

func TestIssueRegistry(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) == 0 {
		t.Fatal("expected registered issues")
	}
	for i := 1; i < len(values); i++ {
		if values[i-1].Id() >= values[i].Id() {
			t.Errorf("issues not sorted by id: %d before %d", values[i-1].Id(), values[i].Id())
		}
	}

	for _, iss := range values {
		if Get(iss.Id()) != iss {
			t.Errorf("Get(%d) did not return the registered issue", iss.Id())
		}
		if strings.TrimSpace(string(iss.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty page", iss.Id())
		}
	}

	if Get(Id(0)) != nil {
		t.Error("Get of an unknown id should return nil")
	}
}
