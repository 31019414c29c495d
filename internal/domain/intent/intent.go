// Package intent defines the closed set of query purposes used to route retrieval.
package intent

import "fmt"

// Label is a coarse classification of what a shopper is asking for.
type Label string

// Supported labels.
const (
	ProductSearch Label = "product_search"
	OrderInquiry  Label = "order_inquiry"
	Support       Label = "support"
	General       Label = "general"
)

// All lists every label. The first three are also the tie-break priority order.
var All = []Label{ProductSearch, OrderInquiry, Support, General}

// IsValid checks if the label is one of the supported values.
func (l Label) IsValid() bool {
	return l == ProductSearch || l == OrderInquiry || l == Support || l == General
}

// Parse converts a string into a Label.
func Parse(s string) (Label, error) {
	l := Label(s)
	if !l.IsValid() {
		return "", fmt.Errorf("unknown intent %q", s)
	}
	return l, nil
}
