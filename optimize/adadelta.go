package optimize

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/DoaneAS/genevector/utils"
)

// Default Adadelta hyperparameters, matching the common reference values.
const (
	DefaultLR  = 1.0
	DefaultRho = 0.9
	DefaultEps = 1e-6
)

// Adadelta holds per-parameter accumulator state for the Adadelta update
// rule. Each registered parameter keeps a running average of squared
// gradients and a running average of squared updates.
type Adadelta struct {
	LR  float64
	Rho float64
	Eps float64

	params    []*mat.Dense
	squareAvg []*mat.Dense
	accDelta  []*mat.Dense
}

// NewAdadelta registers params with default hyperparameters. The
// optimizer updates the registered matrices in place on every Step.
func NewAdadelta(params ...*mat.Dense) *Adadelta {
	o := &Adadelta{
		LR:     DefaultLR,
		Rho:    DefaultRho,
		Eps:    DefaultEps,
		params: params,
	}
	o.squareAvg = make([]*mat.Dense, len(params))
	o.accDelta = make([]*mat.Dense, len(params))
	for i, p := range params {
		o.squareAvg[i] = utils.ZerosLike(p)
		o.accDelta[i] = utils.ZerosLike(p)
	}
	return o
}

// Step applies one Adadelta update per registered parameter. grads must
// be given in registration order with matching shapes.
func (o *Adadelta) Step(grads ...*mat.Dense) {
	if len(grads) != len(o.params) {
		panic("adadelta: grad count mismatch")
	}
	for i, p := range o.params {
		adadeltaUpdateInPlace(p, grads[i], o.squareAvg[i], o.accDelta[i], o.LR, o.Rho, o.Eps)
	}
}

// squareAvg = rho*squareAvg + (1-rho)*g^2
// delta     = sqrt(accDelta+eps)/sqrt(squareAvg+eps) * g
// accDelta  = rho*accDelta + (1-rho)*delta^2
// p        -= lr * delta
func adadeltaUpdateInPlace(p, g, squareAvg, accDelta *mat.Dense, lr, rho, eps float64) {
	pr, pc := p.Dims()
	if gr, gc := g.Dims(); gr != pr || gc != pc {
		panic("adadeltaUpdateInPlace: grad shape mismatch")
	}
	if sr, sc := squareAvg.Dims(); sr != pr || sc != pc {
		panic("adadeltaUpdateInPlace: squareAvg shape mismatch")
	}
	if ar, ac := accDelta.Dims(); ar != pr || ac != pc {
		panic("adadeltaUpdateInPlace: accDelta shape mismatch")
	}
	for i := 0; i < pr; i++ {
		for j := 0; j < pc; j++ {
			gij := g.At(i, j)
			sij := rho*squareAvg.At(i, j) + (1.0-rho)*gij*gij
			delta := math.Sqrt(accDelta.At(i, j)+eps) / math.Sqrt(sij+eps) * gij
			aij := rho*accDelta.At(i, j) + (1.0-rho)*delta*delta
			squareAvg.Set(i, j, sij)
			accDelta.Set(i, j, aij)
			p.Set(i, j, p.At(i, j)-lr*delta)
		}
	}
}
