// internal/reconcile/quantity.go
package reconcile

import (
	"regexp"
	"strconv"
)

var leadingNumberRe = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)`)

// ParseLeadingNumber extracts the leading numeric component of a free-text
// amount such as "200g", "1.5컵" or "2개". Quantities are user-typed and
// frequently have no numeric part at all ("한 그릇"); then def is returned.
func ParseLeadingNumber(s string, def float64) float64 {
	m := leadingNumberRe.FindStringSubmatch(s)
	if m == nil {
		return def
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v == 0 {
		return def
	}
	return v
}
