package genevector

import (
	"bytes"
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/DoaneAS/genevector/optimize"
	"github.com/DoaneAS/genevector/utils"
)

// Fallback batch size when the dataset reports no pairs.
const defaultBatchSize = 1_000_000

// Options configures NewTrainer. Zero values select the default noted
// per field.
type Options struct {
	EmbeddingDim int     // latent dimension; default 100
	BatchSize    int     // pairs per batch; default all pairs in one batch
	Gain         float64 // orthogonal init scale; default 1
	C            float64 // scale passed to the dataset's statistics pass; default 100
	Device       Device  // default DeviceCPU
	InitOrtho    bool    // orthogonal init instead of uniform [-1, 1]
	Seed         int64   // init and shuffle seed; default 1
}

// Trainer owns an EmbeddingModel and drives its optimization against a
// Dataset's pair statistics.
type Trainer struct {
	Model *EmbeddingModel

	// Epoch counts completed non-converged epochs, cumulative across
	// Train calls.
	Epoch          int
	LossValues     []float64 // one entry per batch processed
	MeanLossValues []float64 // trailing-10 mean, one entry per epoch

	ds         Dataset
	opt        *optimize.Adadelta
	batchSize  int
	outputFile string
	device     Device

	genes    []IndexedGene
	ent      []float64
	dWi, dWj *mat.Dense
}

// NewTrainer triggers the dataset's statistics pass with opts.C, sizes
// the model from the dataset's vocabulary and sets up Adadelta over both
// tables. outputFile is where the input-role embedding lands when
// training stops; the output-role file gets its ".vec" suffix replaced
// by "2.vec".
func NewTrainer(ds Dataset, outputFile string, opts Options) (*Trainer, error) {
	if opts.EmbeddingDim == 0 {
		opts.EmbeddingDim = 100
	}
	if opts.Gain == 0 {
		opts.Gain = 1
	}
	if opts.C == 0 {
		opts.C = 100
	}
	if opts.Device == "" {
		opts.Device = DeviceCPU
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	if opts.Device == DeviceBLAS && !blasAvailable {
		return nil, fmt.Errorf("device %q requested but this binary was built without netlib BLAS support", opts.Device)
	}
	if err := ds.CreateInputsOutputs(opts.C); err != nil {
		return nil, fmt.Errorf("create inputs/outputs: %w", err)
	}
	genes := ds.Genes()
	batchSize := opts.BatchSize
	if batchSize == 0 {
		if n := ds.NumPairs(); n > 0 {
			batchSize = n
		} else {
			batchSize = defaultBatchSize
		}
	}
	rnd := rand.New(rand.NewSource(opts.Seed))
	model := NewEmbeddingModel(len(genes), opts.EmbeddingDim, opts.Gain, opts.InitOrtho, rnd)
	return &Trainer{
		Model:      model,
		ds:         ds,
		opt:        optimize.NewAdadelta(model.Wi, model.Wj),
		batchSize:  batchSize,
		outputFile: outputFile,
		device:     opts.Device,
		genes:      genes,
		ent:        ds.EntityDiagonal(),
		dWi:        utils.ZerosLike(model.Wi),
		dWj:        utils.ZerosLike(model.Wj),
	}, nil
}

// Train runs up to epochs epochs, stopping early once the trailing-10
// batch-loss mean moves less than threshold between consecutive epochs
// (threshold 0 disables the check; the previous epoch's value starts at
// 0, so a large threshold can trip on the first epoch). alpha weighs
// the off-diagonal orthogonality penalty, beta the diagonal magnitude
// penalty. A diagnostic line with the trailing-30 mean is printed every
// logInterval epochs. Both embedding tables are exported when training
// stops, whether by convergence or by exhausting epochs.
func (t *Trainer) Train(epochs int, threshold float64, logInterval int, alpha, beta float64) error {
	if logInterval <= 0 {
		logInterval = 20
	}
	lastLoss := 0.0
	for e := 1; e <= epochs; e++ {
		for _, b := range t.ds.GetBatches(t.batchSize) {
			loss := t.Model.LossGrads(b.Targets, b.I, b.J, t.ent, alpha, beta, t.dWi, t.dWj)
			t.opt.Step(t.dWi, t.dWj)
			t.LossValues = append(t.LossValues, loss)
		}
		currLoss := utils.TrailingMean(t.LossValues, 10)
		t.MeanLossValues = append(t.MeanLossValues, currLoss)
		if t.Epoch%logInterval == 0 {
			fmt.Printf("%s %d %s %.5f\n",
				colorize(ansiGreen, "**** Epoch"), t.Epoch,
				colorize(ansiHeader, "\tLoss:"),
				utils.TrailingMean(t.LossValues, 30))
		}
		if threshold != 0 && math.Abs(currLoss-lastLoss) < threshold {
			fmt.Println(colorize(ansiCyan, "Training complete!"))
			return t.exportEmbeddings()
		}
		lastLoss = currLoss
		t.Epoch++
	}
	fmt.Println(colorize(ansiYellow, "Saving model..."))
	return t.exportEmbeddings()
}

func (t *Trainer) exportEmbeddings() error {
	if err := t.Model.SaveEmbedding(t.genes, t.outputFile, RoleInput); err != nil {
		return err
	}
	return t.Model.SaveEmbedding(t.genes, strings.ReplaceAll(t.outputFile, ".vec", "2.vec"), RoleOutput)
}

// WriteLossLog writes the per-epoch mean-loss trace to path as CSV.
func (t *Trainer) WriteLossLog(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Write([]string{"epoch", "mean_loss"})
	for i, v := range t.MeanLossValues {
		w.Write([]string{strconv.Itoa(i + 1), strconv.FormatFloat(v, 'g', -1, 64)})
	}
	w.Flush()
	return errors.Join(w.Error(), f.Close())
}

// modelState is the gob container for Save and Load.
type modelState struct {
	NumEmbeddings int
	EmbeddingDim  int
	Wi, Wj        []float64
}

// Save persists the model's trainable parameters to path.
func (t *Trainer) Save(path string) error {
	st := modelState{
		NumEmbeddings: t.Model.NumEmbeddings,
		EmbeddingDim:  t.Model.EmbeddingDim,
		Wi:            append([]float64(nil), t.Model.Wi.RawMatrix().Data...),
		Wj:            append([]float64(nil), t.Model.Wj.RawMatrix().Data...),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Load restores parameters written by Save into the trained model. The
// persisted shape must match the model's.
func (t *Trainer) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var st modelState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&st); err != nil {
		return err
	}
	if st.NumEmbeddings != t.Model.NumEmbeddings || st.EmbeddingDim != t.Model.EmbeddingDim {
		return fmt.Errorf("load: shape mismatch: model is (%d x %d), file holds (%d x %d)",
			t.Model.NumEmbeddings, t.Model.EmbeddingDim, st.NumEmbeddings, st.EmbeddingDim)
	}
	// Copy in place so the optimizer keeps pointing at the live tables.
	t.Model.Wi.Copy(mat.NewDense(st.NumEmbeddings, st.EmbeddingDim, st.Wi))
	t.Model.Wj.Copy(mat.NewDense(st.NumEmbeddings, st.EmbeddingDim, st.Wj))
	return nil
}
