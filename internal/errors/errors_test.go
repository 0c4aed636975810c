package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"engine", "S101", "Template evaluation failed", CategoryEngine},
		{"event", "S150", "Unknown event", CategoryEvent},
		{"hook", "S201", "Invalid hook type", CategoryHook},
		{"unknown", "S999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestKindSentinels(t *testing.T) {
	if !stderrors.Is(New("S201"), ErrInvalidArgument) {
		t.Error("S201 should be an invalid argument")
	}
	if !stderrors.Is(New("S210"), ErrNotFound) {
		t.Error("S210 should be not found")
	}
	if stderrors.Is(New("S101"), ErrInvalidArgument) {
		t.Error("S101 should not be an invalid argument")
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("S101").Wrap(cause).WithComponent("todo-list")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable through errors.Is")
	}
	if got := err.Error(); got != "S101: Template evaluation failed (todo-list): boom" {
		t.Errorf("Error() = %q", got)
	}

	outer := fmt.Errorf("render: %w", err)
	if Code(outer) != "S101" {
		t.Errorf("Code(outer) = %q, want S101", Code(outer))
	}
	if Code(cause) != "" {
		t.Errorf("Code(cause) = %q, want empty", Code(cause))
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "S101") != nil {
		t.Error("FromError(nil) should be nil")
	}

	existing := New("S303")
	if got := FromError(fmt.Errorf("ctx: %w", existing), "S101"); got != existing {
		t.Error("FromError should return the structured error already in the chain")
	}

	plain := stderrors.New("disk full")
	got := FromError(plain, "S303")
	if got.Code != "S303" || got.Wrapped != plain {
		t.Errorf("FromError = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("S101").
		Wrap(stderrors.New("missing title")).
		WithComponent("card-view").
		WithSuggestion("Give the template a default title")

	out := err.Format()
	for _, want := range []string{
		"ERROR S101: Template evaluation failed",
		"component card-view",
		"Cause: missing title",
		"Hint: Give the template a default title",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "S101: Template evaluation failed [card-view]" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint plain = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, New("S402"))
	if !strings.Contains(buf.String(), "S402") {
		t.Errorf("Fprint structured = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}

func TestCodesRegistered(t *testing.T) {
	for _, code := range Codes() {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" {
			t.Errorf("code %s has no message", code)
		}
	}
}
