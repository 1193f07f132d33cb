package domain

// SourceFailure records the terminal failure of a single source within a batch.
type SourceFailure struct {
	SourceID string
	Reason   string
	Attempts int
}

// BatchResult aggregates per-source outcomes of one pipeline invocation.
// Immutable once returned; Total always equals len(Successful)+len(Failed).
type BatchResult struct {
	ID         string
	Successful []string
	Failed     []SourceFailure
	Total      int
}

// Succeeded reports the batch-level verdict: a batch fails only when every
// source failed. Partial success is success; an empty batch is success.
func (b BatchResult) Succeeded() bool {
	return len(b.Failed) == 0 || len(b.Successful) > 0
}
