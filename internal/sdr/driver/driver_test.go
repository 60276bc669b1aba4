package driver

import (
	"context"
	"testing"
)

type nopDriver struct{ name string }

func (d nopDriver) Name() string { return d.name }

func (d nopDriver) Open(context.Context, Identifier) (Handle, error) { return nil, nil }

func TestRegister(t *testing.T) {
	Register(nopDriver{name: "test-nop"})

	d, err := Lookup("test-nop")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if d.Name() != "test-nop" {
		t.Errorf("Expected driver test-nop, got %s", d.Name())
	}

	found := false
	for _, name := range Drivers() {
		if name == "test-nop" {
			found = true
		}
	}
	if !found {
		t.Error("Expected test-nop in Drivers()")
	}

	if _, err = Lookup("test-missing"); err == nil {
		t.Error("Expected error for unknown driver")
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()
	Register(nopDriver{name: "test-nop"})
}

func TestRoundDownLT(t *testing.T) {
	table := []uint32{175_000, 200_000, 225_000, 250_000}

	tests := []struct {
		hz   uint32
		want uint32
	}{
		{hz: 100_000, want: 175_000},
		{hz: 175_000, want: 175_000},
		{hz: 190_000, want: 175_000},
		{hz: 200_000, want: 175_000},
		{hz: 210_000, want: 200_000},
		{hz: 250_000, want: 225_000},
		{hz: 1_000_000, want: 250_000},
	}

	for _, tt := range tests {
		if got := RoundDownLT(table, tt.hz); got != tt.want {
			t.Errorf("RoundDownLT(%d) = %d, want %d", tt.hz, got, tt.want)
		}
	}

	if got := RoundDownLT(nil, 12345); got != 12345 {
		t.Errorf("Expected pass-through for empty table, got %d", got)
	}
}
