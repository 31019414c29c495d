package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
)

func floatPtr(f float64) *float64 { return &f }

func TestNewRangeFilter(t *testing.T) {
	r, err := NewRangeFilter(floatPtr(1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, *r.GTE())
	assert.Nil(t, r.LTE())

	_, err = NewRangeFilter(nil, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "at least one"))

	_, err = NewRangeFilter(floatPtr(10), floatPtr(1))
	require.Error(t, err)
}

func TestNewMatch_Validation(t *testing.T) {
	_, err := NewMatch("", "x")
	require.Error(t, err)
	_, err = NewMatch("type", "")
	require.Error(t, err)

	c, err := NewMatch("type", "faq")
	require.NoError(t, err)
	assert.True(t, c.IsMatch())
	assert.False(t, c.IsRange())
}

func TestNewExpression_TooMany(t *testing.T) {
	conds := make([]Condition, MaxConditions+1)
	_, err := NewExpression(conds...)
	require.Error(t, err)
}

func TestQueryFilter_MaxPriceDropsMissing(t *testing.T) {
	f, err := New(WithMaxPrice(200))
	require.NoError(t, err)

	hits := []candidate.Hit{
		{ID: "a", Metadata: candidate.Metadata{"price": 100.0}},
		{ID: "b", Metadata: candidate.Metadata{"price": 300.0}},
		{ID: "c", Metadata: candidate.Metadata{}},
	}

	kept := f.Apply(hits)
	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].ID)
}

func TestQueryFilter_MinPrice(t *testing.T) {
	f, err := New(WithMinPrice(150), WithMaxPrice(500))
	require.NoError(t, err)

	assert.False(t, f.Matches(candidate.Metadata{"price": 100.0}))
	assert.True(t, f.Matches(candidate.Metadata{"price": 150.0}))
	assert.True(t, f.Matches(candidate.Metadata{"price": 500.0}))
	assert.False(t, f.Matches(candidate.Metadata{"price": 501.0}))
}

func TestQueryFilter_InvertedRange(t *testing.T) {
	_, err := New(WithMinPrice(500), WithMaxPrice(100))
	require.Error(t, err)
}

func TestQueryFilter_DocumentTypeCaseInsensitive(t *testing.T) {
	f, err := New(WithDocumentType("Product"))
	require.NoError(t, err)

	assert.True(t, f.Matches(candidate.Metadata{"type": "product"}))
	assert.True(t, f.Matches(candidate.Metadata{"type": "PRODUCT"}))
	assert.False(t, f.Matches(candidate.Metadata{"type": "faq"}))
	assert.False(t, f.Matches(candidate.Metadata{}))
}

func TestQueryFilter_CategoryExact(t *testing.T) {
	f, err := New(WithCategory("Áo thun"))
	require.NoError(t, err)

	assert.True(t, f.Matches(candidate.Metadata{"category_name": "Áo thun"}))
	assert.False(t, f.Matches(candidate.Metadata{"category_name": "Quần jean"}))
	assert.False(t, f.Matches(candidate.Metadata{"price": 1.0}))
}

func TestQueryFilter_Conjunctive(t *testing.T) {
	f, err := New(WithMaxPrice(300), WithDocumentType("product"), WithCategory("Váy"))
	require.NoError(t, err)

	assert.True(t, f.Matches(candidate.Metadata{"price": 250.0, "type": "product", "category_name": "Váy"}))
	assert.False(t, f.Matches(candidate.Metadata{"price": 250.0, "type": "product", "category_name": "Đầm"}))
	assert.False(t, f.Matches(candidate.Metadata{"price": 350.0, "type": "product", "category_name": "Váy"}))
}

func TestQueryFilter_EmptyMatchesEverything(t *testing.T) {
	var f QueryFilter
	assert.True(t, f.IsEmpty())
	assert.True(t, f.Matches(nil))

	hits := []candidate.Hit{{ID: "a"}, {ID: "b"}}
	assert.Len(t, f.Apply(hits), 2)
}

func TestQueryFilter_Expression(t *testing.T) {
	f, err := New(WithMaxPrice(200), WithCategory("Giày"), WithDocumentType("product"))
	require.NoError(t, err)

	expr, err := f.Expression()
	require.NoError(t, err)
	require.Len(t, expr.Must(), 3)

	price := expr.Must()[0]
	assert.Equal(t, "price", price.Key())
	require.True(t, price.IsRange())
	assert.Nil(t, price.Range().GTE())
	assert.Equal(t, 200.0, *price.Range().LTE())

	assert.Equal(t, "type", expr.Must()[1].Key())
	assert.Equal(t, "product", expr.Must()[1].Match())
	assert.Equal(t, "category_name", expr.Must()[2].Key())
	assert.Equal(t, "Giày", expr.Must()[2].Match())
}

func TestQueryFilter_ExpressionEmpty(t *testing.T) {
	expr, err := QueryFilter{}.Expression()
	require.NoError(t, err)
	assert.True(t, expr.IsEmpty())
}
