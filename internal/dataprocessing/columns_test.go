package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Very\nSafe", "Very Safe"},
		{"  Neither Safe   nor\r\nUnsafe ", "Neither Safe nor Unsafe"},
		{"Level of\tSchool Connectedness", "Level of School Connectedness"},
		{"", ""},
		{"\n\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := NormalizeColumnName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeColumnName(got), "normalize must be idempotent")
		})
	}
}

func TestSnakeCaseColumn(t *testing.T) {
	assert.Equal(t, "chronic_absenteeism_rate", SnakeCaseColumn("Chronic Absenteeism Rate"))
	assert.Equal(t, "county_code", SnakeCaseColumn(" County  Code "))
	assert.Equal(t, "pct_suspended", SnakeCaseColumn("Pct (Suspended)"))
	assert.Equal(t, []string{"a_b", "c"}, SnakeCaseColumns([]string{"A B", "C"}))
}

func TestBuildCDSCode(t *testing.T) {
	assert.Equal(t, "01611190130229", BuildCDSCode("1", "61119", "130229"))
	assert.Equal(t, "19647330000000", BuildCDSCode("19", "64733", "0"))
}

func TestEnsureCDSCode(t *testing.T) {
	t.Run("builds column", func(t *testing.T) {
		in := Table{
			Header: []string{"county_code", "district_code", "school_code", "rate"},
			Rows:   [][]string{{"1", "61119", "130229", "4.5"}},
		}

		out, missing := EnsureCDSCode(in)
		require.Empty(t, missing)
		assert.Equal(t, CDSColumn, out.Header[len(out.Header)-1])
		assert.Equal(t, "01611190130229", out.Rows[0][4])
		assert.Len(t, in.Header, 4, "input table must not be modified")
	})

	t.Run("already present", func(t *testing.T) {
		in := Table{Header: []string{"cdscode"}, Rows: [][]string{{"x"}}}
		out, missing := EnsureCDSCode(in)
		assert.Empty(t, missing)
		assert.Equal(t, in, out)
	})

	t.Run("missing parts", func(t *testing.T) {
		in := Table{Header: []string{"county_code"}}
		_, missing := EnsureCDSCode(in)
		assert.Equal(t, []string{"district", "school"}, missing)
	})
}

func TestCountyFromGeography(t *testing.T) {
	assert.Equal(t, "Alameda", CountyFromGeography("Alameda County"))
	assert.Equal(t, "California", CountyFromGeography("California"))
}

func TestFindColumn(t *testing.T) {
	header := []string{"a", "b", "c"}
	assert.Equal(t, 1, FindColumn(header, "x", "b"))
	assert.Equal(t, -1, FindColumn(header, "x"))
}
