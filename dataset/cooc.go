// Package dataset produces the gene-pair statistics the trainer
// consumes: co-occurrence counts over a cell population turned into
// normalized pointwise-mutual-information targets.
package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/DoaneAS/genevector"
)

// CoocDataset accumulates gene occurrence and co-occurrence counts and,
// once CreateInputsOutputs has run, serves shuffled training batches.
// Pair targets are positive PMI values capped at ln(c) and normalized
// into [0, 1].
type CoocDataset struct {
	genes   []genevector.IndexedGene
	gene2id map[string]int

	counts *sparse.DOK // co-occurrence counts, stored at (min, max)
	totals []float64   // per-gene occurrence counts
	nCells float64

	targets []float64
	is, js  []int
	ent     []float64

	rnd *rand.Rand
}

// NewCoocDataset fixes the gene vocabulary in the given order. numCells
// is the size of the observed cell population; seed drives batch
// shuffling.
func NewCoocDataset(names []string, numCells int, seed int64) *CoocDataset {
	n := len(names)
	d := &CoocDataset{
		genes:   make([]genevector.IndexedGene, n),
		gene2id: make(map[string]int, n),
		counts:  sparse.NewDOK(n, n),
		totals:  make([]float64, n),
		nCells:  float64(numCells),
		rnd:     rand.New(rand.NewSource(seed)),
	}
	for i, name := range names {
		d.genes[i] = genevector.IndexedGene{ID: i, Name: name}
		d.gene2id[name] = i
	}
	return d
}

// AddOccurrence records count cells expressing gene g.
func (d *CoocDataset) AddOccurrence(g string, count float64) error {
	i, ok := d.gene2id[g]
	if !ok {
		return fmt.Errorf("unknown gene %q", g)
	}
	d.totals[i] += count
	return nil
}

// AddPair records count cells co-expressing genes a and b.
func (d *CoocDataset) AddPair(a, b string, count float64) error {
	i, ok := d.gene2id[a]
	if !ok {
		return fmt.Errorf("unknown gene %q", a)
	}
	j, ok := d.gene2id[b]
	if !ok {
		return fmt.Errorf("unknown gene %q", b)
	}
	if i > j {
		i, j = j, i
	}
	d.counts.Set(i, j, d.counts.At(i, j)+count)
	return nil
}

// CreateInputsOutputs turns the accumulated counts into pair targets.
// c caps the raw PMI at ln(c) before normalization and must exceed 1.
// The entity diagonal becomes each gene's capped self-information on
// the same scale.
func (d *CoocDataset) CreateInputsOutputs(c float64) error {
	if c <= 1 {
		return fmt.Errorf("pmi cap c must exceed 1, got %v", c)
	}
	if d.nCells <= 0 {
		return fmt.Errorf("cell population size must be positive, got %v", d.nCells)
	}
	pmiCap := math.Log(c)
	d.targets = d.targets[:0]
	d.is = d.is[:0]
	d.js = d.js[:0]
	// DOK iteration order is map order; sort so pair order is stable
	// and a run is reproducible from its seed alone.
	type cell struct {
		i, j int
		v    float64
	}
	var cells []cell
	d.counts.DoNonZero(func(i, j int, v float64) {
		cells = append(cells, cell{i, j, v})
	})
	sort.Slice(cells, func(a, b int) bool {
		if cells[a].i != cells[b].i {
			return cells[a].i < cells[b].i
		}
		return cells[a].j < cells[b].j
	})
	for _, ce := range cells {
		pi := d.totals[ce.i] / d.nCells
		pj := d.totals[ce.j] / d.nCells
		pij := ce.v / d.nCells
		if pi == 0 || pj == 0 || pij == 0 {
			continue
		}
		pmi := math.Log(pij / (pi * pj))
		if pmi < 0 {
			pmi = 0
		}
		if pmi > pmiCap {
			pmi = pmiCap
		}
		d.targets = append(d.targets, pmi/pmiCap)
		d.is = append(d.is, ce.i)
		d.js = append(d.js, ce.j)
	}
	d.ent = make([]float64, len(d.genes))
	for i, tot := range d.totals {
		p := tot / d.nCells
		if p <= 0 {
			continue
		}
		si := -math.Log(p)
		if si > pmiCap {
			si = pmiCap
		}
		d.ent[i] = si / pmiCap
	}
	return nil
}

func (d *CoocDataset) NumPairs() int { return len(d.targets) }

func (d *CoocDataset) Genes() []genevector.IndexedGene { return d.genes }

func (d *CoocDataset) EntityDiagonal() []float64 { return d.ent }

// GetBatches returns the epoch's pairs in a fresh shuffled order, split
// into batches of at most batchSize. Every pair appears exactly once
// per sweep.
func (d *CoocDataset) GetBatches(batchSize int) []genevector.Batch {
	n := len(d.targets)
	if n == 0 || batchSize <= 0 {
		return nil
	}
	perm := d.rnd.Perm(n)
	batches := make([]genevector.Batch, 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		b := genevector.Batch{
			Targets: make([]float64, 0, end-start),
			I:       make([]int, 0, end-start),
			J:       make([]int, 0, end-start),
		}
		for _, k := range perm[start:end] {
			b.Targets = append(b.Targets, d.targets[k])
			b.I = append(b.I, d.is[k])
			b.J = append(b.J, d.js[k])
		}
		batches = append(batches, b)
	}
	return batches
}
