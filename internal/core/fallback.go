package core

// FallbackReason names why a soft dependency fell back to its safe default.
type FallbackReason string

const (
	FallbackEmbeddingFailed  FallbackReason = "embedding_failed"
	FallbackSearchFailed     FallbackReason = "search_failed"
	FallbackClassifierFailed FallbackReason = "classifier_failed"
)

// Fallback is the zero value when the dependency succeeded.
type Fallback struct {
	Reason FallbackReason
	Err    error
}

func (f Fallback) Triggered() bool {
	return f.Reason != ""
}
