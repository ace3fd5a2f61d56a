// Package genevector trains dense gene embeddings from co-occurrence
// statistics with a factorized bilinear model.
package genevector

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/DoaneAS/genevector/utils"
)

// Role selects which of the two embedding tables an operation targets.
type Role int

const (
	RoleInput Role = iota
	RoleOutput
)

// IndexedGene pairs a vocabulary index with its gene symbol. A slice of
// IndexedGene carries an explicit iteration order, which SaveEmbedding
// preserves line for line.
type IndexedGene struct {
	ID   int
	Name string
}

// EmbeddingModel holds the two embedding tables of the bilinear model:
// Wi embeds a gene in its input role, Wj in its output role. Both are
// (NumEmbeddings x EmbeddingDim) and are mutated in place by the
// trainer's optimizer steps.
type EmbeddingModel struct {
	Wi *mat.Dense
	Wj *mat.Dense

	NumEmbeddings int
	EmbeddingDim  int
}

// NewEmbeddingModel allocates both tables. With initOrtho the tables get
// an orthogonal initialization scaled by gain (orthonormal columns when
// the vocabulary is at least as large as the dimension, orthonormal rows
// otherwise); without it, independent uniform draws from [-1, 1].
func NewEmbeddingModel(numEmbeddings, embeddingDim int, gain float64, initOrtho bool, rnd *rand.Rand) *EmbeddingModel {
	m := &EmbeddingModel{
		NumEmbeddings: numEmbeddings,
		EmbeddingDim:  embeddingDim,
	}
	if initOrtho {
		m.Wi = utils.Orthogonal(numEmbeddings, embeddingDim, gain, rnd)
		m.Wj = utils.Orthogonal(numEmbeddings, embeddingDim, gain, rnd)
	} else {
		m.Wi = mat.NewDense(numEmbeddings, embeddingDim, utils.UniformArray(numEmbeddings*embeddingDim, -1, 1, rnd))
		m.Wj = mat.NewDense(numEmbeddings, embeddingDim, utils.UniformArray(numEmbeddings*embeddingDim, -1, 1, rnd))
	}
	return m
}

// Score returns the per-pair dot product Wi[i]·Wj[j] for equal-length
// index slices. Pure with respect to model state.
func (m *EmbeddingModel) Score(iIdx, jIdx []int) []float64 {
	if len(iIdx) != len(jIdx) {
		panic("score: index length mismatch")
	}
	out := make([]float64, len(iIdx))
	for b := range iIdx {
		out[b] = mat.Dot(m.Wi.RowView(iIdx[b]), m.Wj.RowView(jIdx[b]))
	}
	return out
}

// LossGrads evaluates the total training loss for one batch and writes
// its gradients into dWi and dWj, zeroing them first. The loss is the
// mean squared error between pair scores and targets, plus
// alpha * sum of squared off-diagonal entries of Wi*Wj^T, plus
// beta * sum of squared deviations of its diagonal from ent.
func (m *EmbeddingModel) LossGrads(targets []float64, iIdx, jIdx []int, ent []float64, alpha, beta float64, dWi, dWj *mat.Dense) float64 {
	dWi.Zero()
	dWj.Zero()

	preds := m.Score(iIdx, jIdx)
	n := float64(len(targets))
	loss := 0.0
	for b, tgt := range targets {
		r := preds[b] - tgt
		loss += r * r
		g := 2 * r / n
		wiRow := m.Wi.RawRowView(iIdx[b])
		wjRow := m.Wj.RawRowView(jIdx[b])
		di := dWi.RawRowView(iIdx[b])
		dj := dWj.RawRowView(jIdx[b])
		for k := range di {
			di[k] += g * wjRow[k]
			dj[k] += g * wiRow[k]
		}
	}
	loss /= n

	if alpha != 0 || beta != 0 {
		wTw := utils.Dot(m.Wi, m.Wj.T())
		gm := utils.ZerosLike(wTw)
		var t1, t2 float64
		for k := 0; k < m.NumEmbeddings; k++ {
			for l := 0; l < m.NumEmbeddings; l++ {
				v := wTw.At(k, l)
				if k == l {
					if beta != 0 {
						d := v - ent[k]
						t2 += d * d
						gm.Set(k, k, 2*beta*d)
					}
				} else {
					t1 += v * v
					gm.Set(k, l, 2*alpha*v)
				}
			}
		}
		loss += alpha*t1 + beta*t2
		dWi.Add(dWi, utils.Dot(gm, m.Wj))
		dWj.Add(dWj, utils.Dot(gm.T(), m.Wi))
	}
	return loss
}

// SaveEmbedding writes one table as a flat text vector file: a
// "<count> <dim>" header, then one line per gene in slice order, the
// symbol followed by dim space-separated values in plain decimal
// notation. RoleInput selects Wi, any other role Wj.
func (m *EmbeddingModel) SaveEmbedding(genes []IndexedGene, path string, role Role) error {
	table := m.Wj
	if role == RoleInput {
		table = m.Wi
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d %d\n", len(genes), m.EmbeddingDim)
	for _, g := range genes {
		w.WriteString(g.Name)
		for _, v := range table.RawRowView(g.ID) {
			w.WriteByte(' ')
			w.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
