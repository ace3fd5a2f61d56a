package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ReadPairs builds a CoocDataset from CSV rows "gene_a,gene_b,count".
// A row pairing a gene with itself records its occurrence count. The
// vocabulary is the union of symbols in first-seen order. A header row
// whose third field is not numeric is skipped.
func ReadPairs(r io.Reader, numCells int, seed int64) (*CoocDataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read pairs: %w", err)
	}
	type pair struct {
		a, b  string
		count float64
	}
	var (
		names []string
		seen  = map[string]bool{}
		pairs []pair
	)
	for n, rec := range records {
		count, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			if n == 0 {
				continue
			}
			return nil, fmt.Errorf("read pairs: row %d: bad count %q", n+1, rec[2])
		}
		for _, g := range []string{rec[0], rec[1]} {
			if !seen[g] {
				seen[g] = true
				names = append(names, g)
			}
		}
		pairs = append(pairs, pair{a: rec[0], b: rec[1], count: count})
	}
	d := NewCoocDataset(names, numCells, seed)
	for _, p := range pairs {
		if p.a == p.b {
			if err := d.AddOccurrence(p.a, p.count); err != nil {
				return nil, err
			}
			continue
		}
		if err := d.AddPair(p.a, p.b, p.count); err != nil {
			return nil, err
		}
	}
	return d, nil
}
