package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinter(&buf).SetWidth(80), &buf
}

func TestClampWidth(t *testing.T) {
	tests := []struct {
		name  string
		width int
		err   error
		want  int
	}{
		{"error falls back to minimum", 120, errors.New("not a terminal"), MinTerminalWidth},
		{"narrow terminal", 40, nil, MinTerminalWidth},
		{"in range", 80, nil, 80},
		{"wide terminal", 200, nil, MaxContentWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampWidth(tt.width, tt.err); got != tt.want {
				t.Errorf("clampWidth(%d) = %d, want %d", tt.width, got, tt.want)
			}
		})
	}
}

func TestNewPrinter_NilWriter(t *testing.T) {
	p := NewPrinter(nil)
	if p.out == nil {
		t.Fatal("expected stdout fallback")
	}
	if p.Width() < MinTerminalWidth || p.Width() > MaxContentWidth {
		t.Errorf("width %d outside clamp range", p.Width())
	}
}

func TestPrintHeader(t *testing.T) {
	p, buf := newTestPrinter()
	p.PrintHeader("Locations", "nameloc locations", D("Directory", "memory"), D("Transport", "http"))

	out := buf.String()
	for _, want := range []string{"LOCATIONS", "nameloc locations", "Directory:", "memory", "Transport:"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Directory:") > strings.Index(out, "Transport:") {
		t.Error("params should keep their order")
	}
}

func TestPrintSuccess(t *testing.T) {
	p, buf := newTestPrinter()
	p.PrintSuccess("Name available", D("Name", "alice"), D("Checked", "12ms"))

	out := buf.String()
	for _, want := range []string{SuccessMarker, "SUCCESS", "Name available", "alice", "12ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("success box missing %q:\n%s", want, out)
		}
	}
}

func TestPrintWarning(t *testing.T) {
	p, buf := newTestPrinter()
	p.PrintWarning("Name taken", D("Name", "bob"))

	out := buf.String()
	for _, want := range []string{WarningMarker, "WARNING", "Name taken", "bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("warning box missing %q:\n%s", want, out)
		}
	}
}

func TestPrintFailure(t *testing.T) {
	p, buf := newTestPrinter()
	p.PrintFailure("Lookup failed", errors.New("connection refused"), []string{"Is the server running?"})

	out := buf.String()
	for _, want := range []string{FailureMarker, "FAILED", "Error: connection refused", "Troubleshooting:", "Is the server running?"} {
		if !strings.Contains(out, want) {
			t.Errorf("failure box missing %q:\n%s", want, out)
		}
	}
}

func TestPrintFailure_NoErrorNoTips(t *testing.T) {
	p, buf := newTestPrinter()
	p.PrintFailure("Nothing found", nil, nil)

	out := buf.String()
	if strings.Contains(out, "Error:") || strings.Contains(out, "Troubleshooting:") {
		t.Errorf("unexpected sections:\n%s", out)
	}
}
