package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampFloat64(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 10, 0},
		{1.5, 1, 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampFloat64(tt.value, tt.min, tt.max))
	}
}

func TestRatioSpecAbsolute(t *testing.T) {
	current, ok := LookupRatio(RatioCurrent)
	assert.True(t, ok)
	assert.True(t, current.Absolute())

	roic, ok := LookupRatio(RatioROIC)
	assert.True(t, ok)
	assert.False(t, roic.Absolute(), "quality benchmarks are a fallback only")

	pe, ok := LookupRatio(RatioPE)
	assert.True(t, ok)
	assert.False(t, pe.Absolute())
}
