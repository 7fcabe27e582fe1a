package errors

import (
	stderrors "errors"
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
		{
			name:    "form error",
			code:    CodeDefaultsOnFactory,
			wantMsg: "Defaults cannot change on a factory form",
			wantCat: CategoryForm,
		},
		{
			name:    "transport error",
			code:    CodeTransport,
			wantMsg: "Request failed",
			wantCat: CategoryTransport,
		},
		{
			name:    "config error",
			code:    CodeInvalidConfig,
			wantMsg: "Invalid configuration",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "F999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
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

func TestNewf(t *testing.T) {
	err := Newf(CategoryConfig, "timeout %q is negative", "-1s")
	if err.Message != `timeout "-1s" is negative` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", err.Category, CategoryConfig)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", New(CodeInvalidMethod), "F003: Invalid HTTP method"},
		{"with field", New(CodeUnknownField).WithField("email"), `F002: Unknown form field: "email"`},
		{"with wrapped", New(CodeTransport).Wrap(stderrors.New("dial tcp: refused")), "F011: Request failed: dial tcp: refused"},
		{"no code", &Error{Message: "plain"}, "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	sentinel := New(CodeDefaultsOnFactory)
	err := New(CodeDefaultsOnFactory).WithSuggestion("use form.New")

	if !stderrors.Is(err, sentinel) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(New(CodeUnknownField), sentinel) {
		t.Error("errors with different codes should not match")
	}
	if stderrors.Is(&Error{Message: "x"}, &Error{Message: "x"}) {
		t.Error("uncoded errors should not match by code")
	}
}

func TestError_Wrap(t *testing.T) {
	inner := stderrors.New("boom")
	outer := New(CodeResponseDecode).Wrap(inner)

	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
	if !stderrors.Is(outer, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeTransport) != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	e := New(CodeInvalidURL)
	if FromError(e, CodeTransport) != e {
		t.Error("FromError should return *Error as-is")
	}

	std := stderrors.New("refused")
	result := FromError(std, CodeTransport)
	if result.Wrapped != std || result.Code != CodeTransport {
		t.Errorf("FromError = %+v", result)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New(CodeDefaultsOnFactory).
		WithSuggestion("Build the form with form.New").
		Format()

	for _, want := range []string{
		"ERROR F001: Defaults cannot change on a factory form",
		"regenerated on every Reset",
		"Hint: Build the form with form.New",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestRegistryCodesHaveMessages(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%q) not found", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has incomplete template: %+v", code, tmpl)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 9)
	want := []string{"one two", "three", "four five"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", lines, want)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText of empty string should be nil")
	}
}
