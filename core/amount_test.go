package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromNanogrin(t *testing.T) {
	tests := []struct {
		name string
		in   uint64
		want string
	}{
		{"zero", 0, "0"},
		{"one nanogrin", 1, "0.000000001"},
		{"one grin", 1_000_000_000, "1"},
		{"min transfer", 100_000_000, "0.1"},
		{"mixed", 5_100_000_001, "5.100000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			if got := FromNanogrin(tt.in); !got.Equal(want) {
				t.Errorf("FromNanogrin(%d) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

func TestToNanogrin(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want uint64
	}{
		{"zero", "0", 0},
		{"one grin", "1", 1_000_000_000},
		{"min transfer", "0.1", 100_000_000},
		{"mixed", "5.100000001", 5_100_000_001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNanogrin(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("ToNanogrin(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 999_999_999, 1_000_000_000, 123_456_789_012} {
		if got := ToNanogrin(FromNanogrin(n)); got != n {
			t.Errorf("round trip of %d = %d", n, got)
		}
	}
}
