package domain

// KeyPrefix namespaces every key and index this service touches in the store.
const KeyPrefix = "shoprag:"

// Reserved document fields written by the ingestion jobs.
const (
	FieldContent = "__content"
	FieldVector  = "vector"
)

// Well-known metadata keys used by structured filters.
const (
	MetaPrice    = "price"
	MetaType     = "type"
	MetaCategory = "category_name"
)

// VectorConfig holds query vectorization defaults.
type VectorConfig struct {
	Model            string
	Dimensions       int
	DistanceMetric   string
	QueryInstruction string
}

// DefaultVectorConfig returns defaults matching a multilingual MiniLM sentence model.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "paraphrase-multilingual-MiniLM-L12-v2",
		Dimensions:     384,
		DistanceMetric: "cosine",
	}
}
