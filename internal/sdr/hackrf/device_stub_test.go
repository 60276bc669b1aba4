//go:build !hackrf

package hackrf

import "testing"

func TestRoundDownBasebandFilter(t *testing.T) {
	tests := []struct {
		hz   uint32
		want uint32
	}{
		{hz: 200_000, want: 1_750_000},
		{hz: 1_750_000, want: 1_750_000},
		{hz: 2_000_000, want: 1_750_000},
		{hz: 2_500_000, want: 1_750_000},
		{hz: 5_000_000, want: 3_500_000},
		{hz: 5_200_000, want: 5_000_000},
		{hz: 15_000_000, want: 14_000_000},
		{hz: 28_000_000, want: 24_000_000},
		{hz: 30_000_000, want: 28_000_000},
	}

	for _, tt := range tests {
		if got := RoundDownBasebandFilter(tt.hz); got != tt.want {
			t.Errorf("RoundDownBasebandFilter(%d) = %d, want %d", tt.hz, got, tt.want)
		}
	}
}
