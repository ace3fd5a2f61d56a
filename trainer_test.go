package genevector

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// memoryDataset serves a fixed set of pairs, split per the requested
// batch size in stored order.
type memoryDataset struct {
	targets []float64
	is, js  []int
	genes   []IndexedGene
	ent     []float64

	createdWith float64
	sweeps      int
}

func (d *memoryDataset) CreateInputsOutputs(c float64) error {
	d.createdWith = c
	return nil
}

func (d *memoryDataset) GetBatches(batchSize int) []Batch {
	d.sweeps++
	var batches []Batch
	for start := 0; start < len(d.targets); start += batchSize {
		end := min(start+batchSize, len(d.targets))
		batches = append(batches, Batch{
			Targets: d.targets[start:end],
			I:       d.is[start:end],
			J:       d.js[start:end],
		})
	}
	return batches
}

func (d *memoryDataset) NumPairs() int { return len(d.targets) }

func (d *memoryDataset) Genes() []IndexedGene { return d.genes }

func (d *memoryDataset) EntityDiagonal() []float64 { return d.ent }

func newMemoryDataset() *memoryDataset {
	return &memoryDataset{
		targets: []float64{0.9, 0.1, 0.5, 0.7},
		is:      []int{0, 1, 2, 0},
		js:      []int{1, 2, 0, 2},
		genes:   []IndexedGene{{0, "BRCA1"}, {1, "TP53"}, {2, "EGFR"}},
		ent:     []float64{1, 1, 1},
	}
}

func TestNewTrainerDefaults(t *testing.T) {
	ds := newMemoryDataset()
	tr, err := NewTrainer(ds, filepath.Join(t.TempDir(), "genes.vec"), Options{EmbeddingDim: 4})
	if err != nil {
		t.Fatal(err)
	}
	if ds.createdWith != 100 {
		t.Fatalf("statistics pass ran with c=%v, want default 100", ds.createdWith)
	}
	if tr.batchSize != ds.NumPairs() {
		t.Fatalf("batchSize %d, want all %d pairs", tr.batchSize, ds.NumPairs())
	}
	if tr.Model.NumEmbeddings != 3 || tr.Model.EmbeddingDim != 4 {
		t.Fatalf("model shape (%d x %d), want (3 x 4)", tr.Model.NumEmbeddings, tr.Model.EmbeddingDim)
	}
}

func TestNewTrainerEmptyDatasetSentinelBatchSize(t *testing.T) {
	ds := &memoryDataset{genes: []IndexedGene{{0, "A"}}, ent: []float64{1}}
	tr, err := NewTrainer(ds, filepath.Join(t.TempDir(), "genes.vec"), Options{EmbeddingDim: 2})
	if err != nil {
		t.Fatal(err)
	}
	if tr.batchSize != defaultBatchSize {
		t.Fatalf("batchSize %d, want sentinel %d", tr.batchSize, defaultBatchSize)
	}
}

func TestNewTrainerRejectsUnavailableBLAS(t *testing.T) {
	// The test binary is built without the netlib tag.
	_, err := NewTrainer(newMemoryDataset(), "genes.vec", Options{Device: DeviceBLAS})
	if err == nil {
		t.Fatal("expected a configuration error for an unavailable device")
	}
}

func TestTrainZeroEpochsExportsInitialWeights(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "genes.vec")
	tr, err := NewTrainer(newMemoryDataset(), out, Options{EmbeddingDim: 4})
	if err != nil {
		t.Fatal(err)
	}
	before := mat.DenseCopyOf(tr.Model.Wi)

	if err := tr.Train(0, 0, 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if len(tr.LossValues) != 0 {
		t.Fatalf("zero epochs processed %d batches", len(tr.LossValues))
	}
	if !mat.Equal(before, tr.Model.Wi) {
		t.Fatal("weights changed with zero epochs")
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	_, vecs, err := ReadVec(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(vecs, before) {
		t.Fatal("exported file does not hold the initial weights")
	}
	if _, err := os.Stat(filepath.Join(dir, "genes2.vec")); err != nil {
		t.Fatalf("output-role export missing: %v", err)
	}
}

func TestTrainConvergenceStopsImmediately(t *testing.T) {
	// With a huge threshold the trailing means trivially sit within it
	// of the initial 0, so training must stop after the first epoch.
	dir := t.TempDir()
	out := filepath.Join(dir, "genes.vec")
	tr, err := NewTrainer(newMemoryDataset(), out, Options{EmbeddingDim: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Train(50, 1e9, 1000, 0, 0); err != nil {
		t.Fatal(err)
	}
	if len(tr.MeanLossValues) != 1 {
		t.Fatalf("ran %d epochs, want exactly 1", len(tr.MeanLossValues))
	}
	if tr.Epoch != 0 {
		t.Fatalf("epoch counter %d, want 0 (converged before increment)", tr.Epoch)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("input-role export missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "genes2.vec")); err != nil {
		t.Fatalf("output-role export missing: %v", err)
	}
}

func TestTrainDisabledThresholdRunsAllEpochs(t *testing.T) {
	tr, err := NewTrainer(newMemoryDataset(), filepath.Join(t.TempDir(), "genes.vec"), Options{EmbeddingDim: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Train(5, 0, 1000, 0, 0); err != nil {
		t.Fatal(err)
	}
	if len(tr.MeanLossValues) != 5 {
		t.Fatalf("ran %d epochs, want 5", len(tr.MeanLossValues))
	}
	if tr.Epoch != 5 {
		t.Fatalf("epoch counter %d, want 5", tr.Epoch)
	}
}

func TestLossTraceLengthCountsBatches(t *testing.T) {
	ds := newMemoryDataset()
	tr, err := NewTrainer(ds, filepath.Join(t.TempDir(), "genes.vec"), Options{EmbeddingDim: 4, BatchSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Train(3, 0, 1000, 0, 0); err != nil {
		t.Fatal(err)
	}
	// Four pairs at batch size two means two batches per sweep.
	if want := 3 * 2; len(tr.LossValues) != want {
		t.Fatalf("loss trace length %d, want %d", len(tr.LossValues), want)
	}
	if ds.sweeps != 3 {
		t.Fatalf("dataset swept %d times, want 3", ds.sweeps)
	}
}

func TestTrainLossDecreases(t *testing.T) {
	tr, err := NewTrainer(newMemoryDataset(), filepath.Join(t.TempDir(), "genes.vec"), Options{EmbeddingDim: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Train(200, 0, 1000, 0.01, 0.01); err != nil {
		t.Fatal(err)
	}
	first := tr.LossValues[0]
	last := tr.MeanLossValues[len(tr.MeanLossValues)-1]
	if !(last < first) {
		t.Fatalf("loss did not decrease: first %v, last mean %v", first, last)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTrainer(newMemoryDataset(), filepath.Join(dir, "genes.vec"), Options{EmbeddingDim: 4, Seed: 11})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Train(3, 0, 1000, 0.1, 0.1); err != nil {
		t.Fatal(err)
	}
	blob := filepath.Join(dir, "model.bin")
	if err := tr.Save(blob); err != nil {
		t.Fatal(err)
	}

	other, err := NewTrainer(newMemoryDataset(), filepath.Join(dir, "other.vec"), Options{EmbeddingDim: 4, Seed: 99})
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Load(blob); err != nil {
		t.Fatal(err)
	}

	iIdx := []int{0, 1, 2}
	jIdx := []int{2, 0, 1}
	want := tr.Model.Score(iIdx, jIdx)
	got := other.Model.Score(iIdx, jIdx)
	for b := range want {
		if math.Abs(want[b]-got[b]) > 1e-15 {
			t.Fatalf("score[%d] after load %v, want %v", b, got[b], want[b])
		}
	}
}

func TestLoadRejectsShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTrainer(newMemoryDataset(), filepath.Join(dir, "genes.vec"), Options{EmbeddingDim: 4})
	if err != nil {
		t.Fatal(err)
	}
	blob := filepath.Join(dir, "model.bin")
	if err := tr.Save(blob); err != nil {
		t.Fatal(err)
	}
	other, err := NewTrainer(newMemoryDataset(), filepath.Join(dir, "other.vec"), Options{EmbeddingDim: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Load(blob); err == nil {
		t.Fatal("expected a shape mismatch error")
	}
}

func TestWriteLossLog(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTrainer(newMemoryDataset(), filepath.Join(dir, "genes.vec"), Options{EmbeddingDim: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Train(2, 0, 1000, 0, 0); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "loss.csv")
	if err := tr.WriteLossLog(logPath); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := 0
	for _, b := range raw {
		if b == '\n' {
			lines++
		}
	}
	if lines != 3 { // header plus one row per epoch
		t.Fatalf("loss log has %d lines, want 3", lines)
	}
}

func TestPlotWritesFile(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTrainer(newMemoryDataset(), filepath.Join(dir, "genes.vec"), Options{EmbeddingDim: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Train(3, 0, 1000, 0, 0); err != nil {
		t.Fatal(err)
	}
	for _, logX := range []bool{false, true} {
		p := filepath.Join(dir, "loss.png")
		if err := tr.Plot(p, logX); err != nil {
			t.Fatalf("logX=%v: %v", logX, err)
		}
		st, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if st.Size() == 0 {
			t.Fatal("empty plot file")
		}
	}
}
