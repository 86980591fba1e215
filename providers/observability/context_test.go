package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubSpan struct{ events []string }

func (s *stubSpan) End()                                 {}
func (s *stubSpan) SetAttributes(...Attribute)           {}
func (s *stubSpan) SetStatus(StatusCode, string)         {}
func (s *stubSpan) RecordError(error)                    {}
func (s *stubSpan) AddEvent(name string, _ ...Attribute) { s.events = append(s.events, name) }

func TestSpanFromContext(t *testing.T) {
	if SpanFromContext(context.Background()) != nil {
		t.Error("expected nil span on empty context")
	}
	//nolint:staticcheck // nil context is handled explicitly
	if SpanFromContext(nil) != nil {
		t.Error("expected nil span on nil context")
	}

	span := &stubSpan{}
	ctx := ContextWithSpan(context.Background(), span)
	if SpanFromContext(ctx) != span {
		t.Error("expected the attached span")
	}
}

func TestObserverFromContext(t *testing.T) {
	if ObserverFromContext(context.Background()) != nil {
		t.Error("expected nil observer on empty context")
	}

	//nolint:staticcheck // nil context is handled explicitly
	ctx := ContextWithObserver(nil, nil)
	if ctx == nil {
		t.Fatal("expected a non-nil context")
	}
	if ObserverFromContext(ctx) != nil {
		t.Error("a nil observer must read back as nil")
	}
}

func TestAttributes(t *testing.T) {
	tests := []struct {
		attr Attribute
		key  string
		val  any
	}{
		{String(AttrToolName, "list_tables"), AttrToolName, "list_tables"},
		{Int(AttrTableRows, 3), AttrTableRows, 3},
		{Int64("n", 4), "n", int64(4)},
		{Duration(AttrDuration, time.Second), AttrDuration, time.Second},
		{Error(errors.New("boom")), "error", "boom"},
		{Error(nil), "error", ""},
	}
	for _, tt := range tests {
		if tt.attr.Key != tt.key || tt.attr.Value != tt.val {
			t.Errorf("got %+v, want key=%s value=%v", tt.attr, tt.key, tt.val)
		}
		if got := tt.attr.Slog(); got.Key != tt.key {
			t.Errorf("Slog() key = %q, want %q", got.Key, tt.key)
		}
	}
}

func TestStatusCode_String(t *testing.T) {
	tests := map[StatusCode]string{
		StatusUnset:    "unset",
		StatusOK:       "ok",
		StatusError:    "error",
		StatusCode(42): "unset",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("StatusCode(%d).String() = %q, want %q", int(code), got, want)
		}
	}
}
