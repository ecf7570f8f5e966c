package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ewscli/pkg/contracts/domain"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want domain.Value
	}{
		{"percent sign", "27.4%", domain.Of(27.4)},
		{"plain number", "15", domain.Of(15)},
		{"padded percent", "  8.5 % ", domain.Of(8.5)},
		{"suppressed", "S", domain.Missing()},
		{"not applicable", "N/A", domain.Missing()},
		{"blank", "", domain.Missing()},
		{"whitespace", "   ", domain.Missing()},
		{"lone percent", "%", domain.Missing()},
		{"garbage", "n/a-ish", domain.Missing()},
		{"nan literal", "NaN", domain.Missing()},
		{"inf literal", "inf", domain.Missing()},
		{"signed infinity", "-Infinity", domain.Missing()},
		{"inf percent", "+Inf%", domain.Missing()},
		{"overflow", "1e400", domain.Missing()},
		{"large finite", "1e308", domain.Of(1e308)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.cell))
		})
	}
}

func TestCoerceCell(t *testing.T) {
	assert.True(t, CoerceCell(nil).IsMissing())

	s := "12%"
	assert.Equal(t, domain.Of(12), CoerceCell(&s))
}

func TestCoerceMetricsPositional(t *testing.T) {
	m := coerceMetrics([5]string{"1", "2", "S", "4", ""})

	assert.Equal(t, domain.Of(1), m.VerySafe)
	assert.Equal(t, domain.Of(2), m.Safe)
	assert.True(t, m.Neither.IsMissing())
	assert.Equal(t, domain.Of(4), m.Unsafe)
	assert.True(t, m.VeryUnsafe.IsMissing())
}
