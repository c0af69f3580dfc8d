package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"kibibytes", "4K", 4096},
		{"mebibytes", "58M", 60817408},
		{"gibibytes", "2G", 2147483648},
		{"tebibytes", "1T", 1099511627776},
		{"pebibytes", "1P", 1125899906842624},
		{"lowercase unit", "58m", 60817408},
		{"whitespace tolerated", " 1T ", 1099511627776},
		{"zero value", "0K", 0},
		{"missing unit", "1024", 0},
		{"unsupported unit", "10Q", 0},
		{"non-numeric prefix", "xG", 0},
		{"fractional prefix", "1.5T", 0},
		{"negative prefix", "-1G", 0},
		{"unit only", "T", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ParseSize(tt.input))
		})
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"thousands", "100K", 100000},
		{"millions", "2M", 2000000},
		{"lowercase unit", "100k", 100000},
		{"gig not a count unit", "1G", 0},
		{"missing unit", "500", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ParseCount(tt.input))
		})
	}
}
