package search

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	"github.com/kailas-cloud/shoprag/internal/domain/collection"
)

// Boost defaults.
const (
	DefaultTermBoost    = 0.1
	DefaultProductBonus = 0.05
)

// DefaultVocabulary lists garment and product nouns that embeddings tend to
// under-rank when matched lexically.
var DefaultVocabulary = []string{
	"áo", "quần", "giày", "dép", "váy", "đầm", "túi", "mũ", "nón",
	"thun", "sơ mi", "khoác", "hoodie", "len", "polo", "jean", "kaki",
	"short", "sneaker", "balo",
}

// Booster applies an additive lexical prior on top of weighted scores.
type Booster struct {
	vocabulary    []string
	termBoost     float64
	productBonus  float64
	productSource string
}

// NewBooster creates a booster with the default vocabulary and increments.
func NewBooster() *Booster {
	return &Booster{
		vocabulary:    normalizeAll(DefaultVocabulary),
		termBoost:     DefaultTermBoost,
		productBonus:  DefaultProductBonus,
		productSource: collection.Products,
	}
}

// WithVocabulary replaces the product-term vocabulary. Empty input is ignored.
func (b *Booster) WithVocabulary(terms []string) *Booster {
	if v := normalizeAll(terms); len(v) > 0 {
		b.vocabulary = v
	}
	return b
}

// WithTermBoost sets the per-term increment.
func (b *Booster) WithTermBoost(v float64) *Booster {
	b.termBoost = v
	return b
}

// WithProductBonus sets the flat bonus for product candidates.
func (b *Booster) WithProductBonus(v float64) *Booster {
	b.productBonus = v
	return b
}

// Terms returns the vocabulary terms contained in query, in vocabulary order.
func (b *Booster) Terms(query string) []string {
	q := normalize(query)
	var found []string
	for _, t := range b.vocabulary {
		if strings.Contains(q, t) {
			found = append(found, t)
		}
	}
	return found
}

// Apply boosts a copy of cands for query and stable re-sorts it by weighted score.
func (b *Booster) Apply(query string, cands []candidate.Candidate) []candidate.Candidate {
	out := slices.Clone(cands)
	terms := b.Terms(query)
	if len(terms) == 0 {
		return out
	}

	for i, c := range out {
		text := normalize(c.Text())
		delta := 0.0
		for _, t := range terms {
			if strings.Contains(text, t) {
				delta += b.termBoost
			}
		}
		if c.Collection() == b.productSource {
			delta += b.productBonus
		}
		if delta != 0 {
			out[i] = c.Boosted(delta)
		}
	}

	slices.SortStableFunc(out, byWeightedScoreDesc)
	return out
}

func normalize(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, normalize(t))
		}
	}
	return out
}
