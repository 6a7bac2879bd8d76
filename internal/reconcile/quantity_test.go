// internal/reconcile/quantity_test.go
package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadingNumber(t *testing.T) {
	tests := []struct {
		in   string
		def  float64
		want float64
	}{
		{"200g", 1, 200},
		{"2개", 1, 2},
		{"1.5컵", 1, 1.5},
		{"  3 조각", 1, 3},
		{"한 그릇", 1, 1},
		{"", 1, 1},
		{"약간", 2.5, 2.5},
		{"0g", 1, 1}, // a zero amount would wipe the record; fall back
		{"g200", 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLeadingNumber(tt.in, tt.def), "input %q", tt.in)
	}
}
