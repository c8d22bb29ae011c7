package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Baiumka/miner-client/pkg/app/errors"
)

func TestParseAmountE8s(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
		bad   bool
	}{
		{input: "5.0", want: 500_000_000},
		{input: "5", want: 500_000_000},
		{input: "0.05", want: 5_000_000},
		{input: "0.00000001", want: 1},
		{input: "123.45678901", want: 12_345_678_901},
		{input: "0.123456789", bad: true},
		{input: "0", bad: true},
		{input: "-1", bad: true},
		{input: "abc", bad: true},
		{input: "", bad: true},
		{input: "1e500", bad: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmountE8s(tt.input)
			if tt.bad {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmountE8s_Exact(t *testing.T) {
	// 0.1 is not representable in binary floating point; the decimal path
	// must still convert it exactly.
	got, err := ParseAmountE8s("0.1")
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), got)
}

func TestFormatE8s(t *testing.T) {
	assert.Equal(t, "5", FormatE8s(500_000_000))
	assert.Equal(t, "0.05", FormatE8s(5_000_000))
	assert.Equal(t, "5.0001", FormatE8s(500_010_000))
	assert.Equal(t, "0", FormatE8s(0))
}
