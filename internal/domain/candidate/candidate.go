// Package candidate holds the per-query retrieval unit: a document pulled from
// one collection together with its raw and weighted relevance.
package candidate

// Hit is a raw nearest-neighbour match as returned by a collection index.
// Distance follows the cosine convention: 0 is identical, 2 is opposite.
type Hit struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

// Candidate is a scored document drawn from a named collection.
type Candidate struct {
	id            string
	text          string
	metadata      Metadata
	collection    string
	distance      float64
	rawScore      float64
	weightedScore float64
}

// New scores a hit: rawScore = 1 - distance, weightedScore = rawScore * weight.
func New(hit Hit, collection string, weight float64) Candidate {
	raw := 1 - hit.Distance
	return Candidate{
		id:            hit.ID,
		text:          hit.Text,
		metadata:      hit.Metadata,
		collection:    collection,
		distance:      hit.Distance,
		rawScore:      raw,
		weightedScore: raw * weight,
	}
}

// ID returns the document identifier, unique within its collection.
func (c Candidate) ID() string { return c.id }

// Text returns the document text.
func (c Candidate) Text() string { return c.text }

// Metadata returns the document attributes.
func (c Candidate) Metadata() Metadata { return c.metadata }

// Collection returns the key of the collection the candidate came from.
func (c Candidate) Collection() string { return c.collection }

// Distance returns the index-native distance.
func (c Candidate) Distance() float64 { return c.distance }

// RawScore returns 1 - distance.
func (c Candidate) RawScore() float64 { return c.rawScore }

// WeightedScore returns the collection-weighted score, including any rerank boost.
func (c Candidate) WeightedScore() float64 { return c.weightedScore }

// Boosted returns a copy with delta added to the weighted score.
func (c Candidate) Boosted(delta float64) Candidate {
	c.weightedScore += delta
	return c
}
