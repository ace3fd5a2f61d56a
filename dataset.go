package genevector

// Batch is one slice of training pairs: Targets[b] is the regression
// target for the pair (I[b], J[b]). All three slices have equal length.
type Batch struct {
	Targets []float64
	I, J    []int
}

// Dataset is the contract the trainer requires from its data producer.
type Dataset interface {
	// CreateInputsOutputs builds the pair statistics with scale c. The
	// trainer calls it once at construction, before anything else.
	CreateInputsOutputs(c float64) error

	// GetBatches returns one full sweep over the pairs, split into
	// batches of at most batchSize. Iteration order within a sweep is
	// the implementation's choice.
	GetBatches(batchSize int) []Batch

	// NumPairs reports the number of training pairs.
	NumPairs() int

	// Genes lists the vocabulary in mapping order. Gene IDs are valid
	// row indices into the model's tables for the whole run.
	Genes() []IndexedGene

	// EntityDiagonal is the per-gene expected self-similarity target
	// used by the magnitude penalty, indexed by gene ID.
	EntityDiagonal() []float64
}
