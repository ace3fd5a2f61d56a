//go:build netlib

package genevector

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

// Building with `-tags netlib` links the system BLAS and makes
// DeviceBLAS selectable at runtime.
func init() {
	blas64.Use(netlib.Implementation{})
	blasAvailable = true
}
