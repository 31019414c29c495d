// Package intent classifies free-text shopper queries.
package intent

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	domintent "github.com/kailas-cloud/shoprag/internal/domain/intent"
)

// Classifier maps a query to an intent label. Implementations must be pure.
type Classifier interface {
	Classify(query string) domintent.Label
}

// Default keyword sets (Vietnamese storefront vocabulary).
var (
	DefaultProductTerms = []string{
		"sản phẩm", "áo", "quần", "giày", "mua", "giá", "size", "màu",
		"váy", "đầm", "shop", "bán", "có", "tìm", "mẫu",
	}
	DefaultOrderTerms = []string{
		"đơn hàng", "order", "giao hàng", "ship", "tracking", "trạng thái",
		"hủy đơn", "đặt hàng", "mua hàng", "thanh toán",
	}
	DefaultSupportTerms = []string{
		"làm sao", "như thế nào", "cách", "đổi trả", "hoàn tiền",
		"chính sách", "bảo hành", "liên hệ", "hotline",
	}
)

// Normalize lowercases and NFC-composes text so that precomposed and
// combining-mark spellings of the same word compare equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

type keywordSet struct {
	label domintent.Label
	terms []string
}

// KeywordClassifier scores each intent by substring keyword hits.
type KeywordClassifier struct {
	sets []keywordSet // evaluation order doubles as tie-break priority
}

// NewKeywordClassifier creates a classifier with the default keyword sets.
func NewKeywordClassifier() *KeywordClassifier {
	return NewKeywordClassifierWithTerms(nil, nil, nil)
}

// NewKeywordClassifierWithTerms creates a classifier with custom keyword sets.
// A nil or empty set falls back to its default.
func NewKeywordClassifierWithTerms(product, order, support []string) *KeywordClassifier {
	pick := func(custom, fallback []string) []string {
		if len(custom) == 0 {
			custom = fallback
		}
		out := make([]string, 0, len(custom))
		for _, t := range custom {
			if t = Normalize(strings.TrimSpace(t)); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return &KeywordClassifier{sets: []keywordSet{
		{domintent.ProductSearch, pick(product, DefaultProductTerms)},
		{domintent.OrderInquiry, pick(order, DefaultOrderTerms)},
		{domintent.Support, pick(support, DefaultSupportTerms)},
	}}
}

// Classify returns the intent with the strictly highest keyword score.
// All-zero scores yield General; equal non-zero scores resolve in the order
// product_search, order_inquiry, support.
func (c *KeywordClassifier) Classify(query string) domintent.Label {
	q := Normalize(query)

	best := domintent.General
	bestScore := 0
	for _, set := range c.sets {
		score := 0
		for _, term := range set.terms {
			if strings.Contains(q, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = set.label, score
		}
	}
	return best
}

// Scores returns the per-intent keyword score, for diagnostics.
func (c *KeywordClassifier) Scores(query string) map[domintent.Label]int {
	q := Normalize(query)
	out := make(map[domintent.Label]int, len(c.sets))
	for _, set := range c.sets {
		for _, term := range set.terms {
			if strings.Contains(q, term) {
				out[set.label]++
			}
		}
	}
	return out
}
