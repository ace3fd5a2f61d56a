package genevector

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// ReadVec parses the flat text vector format written by SaveEmbedding: a
// "<count> <dim>" header, then one gene per line, the symbol followed by
// dim space-separated values. Gene order follows the file.
func ReadVec(r io.Reader) ([]string, *mat.Dense, error) {
	var count, dim int
	if _, err := fmt.Fscanf(r, "%d %d", &count, &dim); err != nil {
		return nil, nil, fmt.Errorf("read vec header: %w", err)
	}
	names := make([]string, count)
	vecs := mat.NewDense(count, dim, nil)
	for i := 0; i < count; i++ {
		if _, err := fmt.Fscan(r, &names[i]); err != nil {
			return nil, nil, fmt.Errorf("read vec entry %d: %w", i, err)
		}
		row := vecs.RawRowView(i)
		for k := 0; k < dim; k++ {
			if _, err := fmt.Fscan(r, &row[k]); err != nil {
				return nil, nil, fmt.Errorf("read vec entry %d: %w", i, err)
			}
		}
	}
	return names, vecs, nil
}
