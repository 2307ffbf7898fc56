package kriging

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/ariamap/ariamap/internal/geo"
)

// EngineConfig holds configuration for the interpolation engine.
type EngineConfig struct {
	// Alpha is the diagonal regularizer guarding numerical conditioning
	// with near-duplicate inputs. Default: 1e-6.
	Alpha float64

	// SearchIterations bounds the deterministic length-scale refinement.
	// Default: 32.
	SearchIterations int

	// Logger for fit diagnostics.
	Logger zerolog.Logger
}

// Engine fits Gaussian-process surfaces and predicts them over grids.
// FitPredict is a pure function of its inputs, so one Engine is safe for
// concurrent use across goroutines.
type Engine struct {
	alpha       float64
	searchIters int
	logger      zerolog.Logger
}

// NewEngine creates a new interpolation engine.
func NewEngine(cfg EngineConfig) *Engine {
	alpha := cfg.Alpha
	if alpha == 0 {
		alpha = 1e-6
	}
	searchIters := cfg.SearchIterations
	if searchIters == 0 {
		searchIters = 32
	}
	return &Engine{
		alpha:       alpha,
		searchIters: searchIters,
		logger:      cfg.Logger,
	}
}

// Result holds the predicted-value and standard-deviation grids, shaped
// like the sampling grid they were evaluated on.
type Result struct {
	Mean [][]float64
	Std  [][]float64
}

// FitPredict fits a zero-mean, normalized-target Gaussian process to the
// observations and predicts mean and standard deviation at every grid
// sample point. The covariance is an RBF kernel plus white noise; the
// length-scale is refined within the profile's bounds by maximizing the
// log marginal likelihood with a deterministic search.
func (e *Engine) FitPredict(coords []geo.Point, values []float64, grid *geo.Grid, profile KernelProfile) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: no observation points", ErrInsufficientData)
	}
	if len(coords) != len(values) {
		return nil, fmt.Errorf("coords/values length mismatch: %d vs %d", len(coords), len(values))
	}

	f, err := e.fit(coords, values, profile)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("points", len(coords)).
		Float64("length_scale", f.lengthScale).
		Float64("log_marginal_likelihood", f.lml).
		Msg("gaussian process fitted")

	return f.predict(grid), nil
}

// gpFit is a fitted Gaussian process: the Cholesky factor of the training
// covariance, the dual weights, and the target normalization.
type gpFit struct {
	coords      []geo.Point
	chol        mat.Cholesky
	weights     *mat.VecDense
	lengthScale float64
	noise       float64
	yMean       float64
	yStd        float64
	lml         float64
}

// fit normalizes the targets and selects the length-scale within bounds
// that maximizes the log marginal likelihood. The search is a fixed
// golden-section walk over the log length-scale, so identical inputs
// always land on identical hyperparameters.
func (e *Engine) fit(coords []geo.Point, values []float64, profile KernelProfile) (*gpFit, error) {
	yMean, yStd := normalization(values)
	yNorm := mat.NewVecDense(len(values), nil)
	for i, v := range values {
		yNorm.SetVec(i, (v-yMean)/yStd)
	}

	sqDists := pairwiseSqDists(coords)

	evaluate := func(ell float64) (*gpFit, error) {
		return e.factorize(coords, sqDists, yNorm, ell, profile.NoiseLevel, yMean, yStd)
	}

	best, err := evaluate(profile.clippedLengthScale())
	if err != nil {
		return nil, err
	}

	lo := math.Log(profile.LengthScaleMin)
	hi := math.Log(profile.LengthScaleMax)
	if hi > lo {
		const invPhi = 0.6180339887498949
		a, b := lo, hi
		c := b - invPhi*(b-a)
		d := a + invPhi*(b-a)
		fc, errC := evaluate(math.Exp(c))
		fd, errD := evaluate(math.Exp(d))
		if errC != nil || errD != nil {
			return best, nil
		}

		for i := 0; i < e.searchIters; i++ {
			if fc.lml > fd.lml {
				b, d, fd = d, c, fc
				c = b - invPhi*(b-a)
				fc, errC = evaluate(math.Exp(c))
				if errC != nil {
					break
				}
			} else {
				a, c, fc = c, d, fd
				d = a + invPhi*(b-a)
				fd, errD = evaluate(math.Exp(d))
				if errD != nil {
					break
				}
			}
		}
		for _, candidate := range []*gpFit{fc, fd} {
			if candidate != nil && candidate.lml > best.lml {
				best = candidate
			}
		}
	}

	return best, nil
}

// factorize builds and factorizes the training covariance for one
// length-scale, escalating the diagonal jitter when the matrix is not
// positive definite.
func (e *Engine) factorize(coords []geo.Point, sqDists *mat.SymDense, yNorm *mat.VecDense, ell, noise, yMean, yStd float64) (*gpFit, error) {
	n := len(coords)

	for jitter := e.alpha; jitter <= e.alpha*1e7; jitter *= 10 {
		cov := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := rbf(sqDists.At(i, j), ell)
				if i == j {
					v += noise + jitter
				}
				cov.SetSym(i, j, v)
			}
		}

		var chol mat.Cholesky
		if !chol.Factorize(cov) {
			continue
		}

		weights := mat.NewVecDense(n, nil)
		if err := chol.SolveVecTo(weights, yNorm); err != nil {
			continue
		}

		lml := -0.5*mat.Dot(yNorm, weights) -
			0.5*chol.LogDet() -
			0.5*float64(n)*math.Log(2*math.Pi)

		return &gpFit{
			coords:      coords,
			chol:        chol,
			weights:     weights,
			lengthScale: ell,
			noise:       noise,
			yMean:       yMean,
			yStd:        yStd,
			lml:         lml,
		}, nil
	}

	return nil, fmt.Errorf("covariance factorization failed for %d points at length scale %v", n, ell)
}

// predict evaluates mean and standard deviation at every grid point and
// reshapes both to the grid's 2-D shape.
func (f *gpFit) predict(grid *geo.Grid) *Result {
	res := grid.Resolution
	result := &Result{
		Mean: make([][]float64, res),
		Std:  make([][]float64, res),
	}
	for i := range result.Mean {
		result.Mean[i] = make([]float64, res)
		result.Std[i] = make([]float64, res)
	}

	n := len(f.coords)
	kvec := mat.NewVecDense(n, nil)
	sol := mat.NewVecDense(n, nil)

	// Prior variance at any point: RBF(0) plus the white-noise level.
	priorVar := 1 + f.noise

	for idx, p := range grid.Points {
		for j, c := range f.coords {
			dLon := p.Lon - c.Lon
			dLat := p.Lat - c.Lat
			kvec.SetVec(j, rbf(dLon*dLon+dLat*dLat, f.lengthScale))
		}

		mean := f.yMean + f.yStd*mat.Dot(kvec, f.weights)

		variance := priorVar
		if err := f.chol.SolveVecTo(sol, kvec); err == nil {
			variance -= mat.Dot(kvec, sol)
		}
		if variance < 0 {
			variance = 0
		}

		i, j := idx/res, idx%res
		result.Mean[i][j] = mean
		result.Std[i][j] = f.yStd * math.Sqrt(variance)
	}

	return result
}

// normalization returns the population mean and standard deviation of
// the targets; a degenerate (constant) target keeps unit scale.
func normalization(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	for _, v := range values {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(values)))
	if std == 0 {
		std = 1
	}
	return mean, std
}

// pairwiseSqDists precomputes squared distances between all observation
// pairs in coordinate-degree units.
func pairwiseSqDists(coords []geo.Point) *mat.SymDense {
	n := len(coords)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dLon := coords[i].Lon - coords[j].Lon
			dLat := coords[i].Lat - coords[j].Lat
			d.SetSym(i, j, dLon*dLon+dLat*dLat)
		}
	}
	return d
}
