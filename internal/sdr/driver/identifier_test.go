package driver

import (
	"errors"
	"testing"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		driver string
		index  int
		args   map[string]string
	}{
		{name: "driver only", input: "driver=hackrf", driver: "hackrf", index: -1},
		{name: "mixed case", input: " Driver=Mock ", driver: "mock", index: -1},
		{name: "bare index", input: "0", driver: DefaultDriver, index: 0},
		{name: "bare index two", input: "2", driver: DefaultDriver, index: 2},
		{
			name:   "serial",
			input:  "driver=hackrf,serial=457863c82b1e2f4f",
			driver: "hackrf",
			index:  -1,
			args:   map[string]string{"serial": "457863c82b1e2f4f"},
		},
		{
			name:   "index and args",
			input:  "driver=mock, index=1, realtime=false",
			driver: "mock",
			index:  1,
			args:   map[string]string{"realtime": "false"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseIdentifier(tt.input)
			if err != nil {
				t.Fatalf("ParseIdentifier(%q) returned error: %v", tt.input, err)
			}
			if id.Driver != tt.driver {
				t.Errorf("Expected driver %q, got %q", tt.driver, id.Driver)
			}
			if id.Index != tt.index {
				t.Errorf("Expected index %d, got %d", tt.index, id.Index)
			}
			for k, v := range tt.args {
				if id.Args[k] != v {
					t.Errorf("Expected arg %s=%q, got %q", k, v, id.Args[k])
				}
			}
		})
	}
}

func TestParseIdentifier_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "-1", "serial=abc", "driver=mock,index=x", "driver=mock,bogus"} {
		_, err := ParseIdentifier(input)
		if err == nil {
			t.Errorf("Expected error for %q", input)
			continue
		}

		var configErr *ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("Expected *ConfigError for %q, got %T", input, err)
		}
	}
}

func TestIdentifier_Accessors(t *testing.T) {
	id, err := ParseIdentifier("driver=mock,realtime=false,chunk=4096,tone=2400.5,bad=x")
	if err != nil {
		t.Fatalf("ParseIdentifier returned error: %v", err)
	}

	if id.Bool("realtime", true) {
		t.Error("Expected realtime=false")
	}
	if !id.Bool("missing", true) {
		t.Error("Expected default for missing bool")
	}
	if got := id.Int("chunk", 0); got != 4096 {
		t.Errorf("Expected chunk 4096, got %d", got)
	}
	if got := id.Int("bad", 7); got != 7 {
		t.Errorf("Expected default 7 for malformed int, got %d", got)
	}
	if got := id.Float("tone", 0); got != 2400.5 {
		t.Errorf("Expected tone 2400.5, got %f", got)
	}

	want := "driver=mock,bad=x,chunk=4096,realtime=false,tone=2400.5"
	if got := id.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
