package projection

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/finsim/finsim/internal/analytics"
)

// SimulationParameters configures a GBM ensemble
type SimulationParameters struct {
	InitialValue   float64 `json:"initial_value"`
	Drift          float64 `json:"drift"`
	Volatility     float64 `json:"volatility"`
	HorizonPeriods int     `json:"horizon_periods"`
	SampleCount    int     `json:"sample_count"`
}

// Validate checks the parameter invariants
func (p SimulationParameters) Validate() error {
	switch {
	case !(p.InitialValue > 0) || math.IsInf(p.InitialValue, 0):
		return &analytics.InvalidParameterError{Field: "initial_value", Value: p.InitialValue, Reason: "must be a finite value > 0"}
	case p.SampleCount < 1:
		return &analytics.InvalidParameterError{Field: "sample_count", Value: p.SampleCount, Reason: "must be >= 1"}
	case p.HorizonPeriods < 1:
		return &analytics.InvalidParameterError{Field: "horizon_periods", Value: p.HorizonPeriods, Reason: "must be >= 1"}
	case math.IsNaN(p.Drift) || math.IsInf(p.Drift, 0):
		return &analytics.InvalidParameterError{Field: "drift", Value: p.Drift, Reason: "must be finite"}
	case !(p.Volatility >= 0) || math.IsInf(p.Volatility, 0):
		return &analytics.InvalidParameterError{Field: "volatility", Value: p.Volatility, Reason: "must be a finite value >= 0"}
	}
	return nil
}

// Path is one simulated trajectory; index 0 is the initial value
type Path []float64

// Terminal returns the value at the final horizon step
func (p Path) Terminal() float64 {
	return p[len(p)-1]
}

// Ensemble is a set of paths generated from the same parameters.
// Complete is false when generation stopped early; Paths then holds the
// batches that finished, in path order.
type Ensemble struct {
	Params   SimulationParameters
	Seed     uint64
	Paths    []Path
	Complete bool
}

// Len returns the number of paths
func (e *Ensemble) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Paths)
}

// Simulate generates the ensemble sequentially from a single source,
// drawing one variate per step, path by path.
func Simulate(params SimulationParameters, src NormalSource) (*Ensemble, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	paths := allocatePaths(params)
	for i := range paths {
		fillPath(paths[i], params, src)
	}

	return &Ensemble{Params: params, Paths: paths, Complete: true}, nil
}

// RunOptions tunes parallel generation
type RunOptions struct {
	Workers   int // 0 means runtime.NumCPU()
	BatchSize int // paths per unit of work, 0 means DefaultBatchSize
}

// DefaultBatchSize is the number of paths per batch
const DefaultBatchSize = 1000

// RunSimulation generates the ensemble across a bounded worker pool. Path i
// always draws from NewPathStream(seed, i), so the result is identical for
// every worker count and batch size.
//
// When ctx is cancelled, unstarted and unfinished batches are dropped and the
// partial ensemble is returned together with ctx.Err().
func RunSimulation(ctx context.Context, params SimulationParameters, seed uint64, opts RunOptions) (*Ensemble, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	paths := allocatePaths(params)
	numBatches := (len(paths) + batchSize - 1) / batchSize
	done := make([]bool, numBatches)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)

dispatch:
	for b := 0; b < numBatches; b++ {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		start := b * batchSize
		end := min(start+batchSize, len(paths))

		wg.Add(1)
		go func(batch, start, end int) {
			defer wg.Done()
			defer func() { <-sem }()

			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				fillPath(paths[i], params, NewPathStream(seed, i))
			}

			mu.Lock()
			done[batch] = true
			mu.Unlock()
		}(b, start, end)
	}
	wg.Wait()

	ensemble := &Ensemble{Params: params, Seed: seed, Complete: true}
	for _, ok := range done {
		if !ok {
			ensemble.Complete = false
			break
		}
	}
	if ensemble.Complete {
		ensemble.Paths = paths
		return ensemble, nil
	}

	for b, ok := range done {
		if !ok {
			continue
		}
		start := b * batchSize
		end := min(start+batchSize, len(paths))
		ensemble.Paths = append(ensemble.Paths, paths[start:end]...)
	}
	// batches are only abandoned on cancellation, so ctx.Err() is set here
	return ensemble, ctx.Err()
}

// allocatePaths carves every path out of one backing array
func allocatePaths(params SimulationParameters) []Path {
	width := params.HorizonPeriods + 1
	data := make([]float64, params.SampleCount*width)
	paths := make([]Path, params.SampleCount)
	for i := range paths {
		paths[i] = Path(data[i*width : (i+1)*width : (i+1)*width])
	}
	return paths
}

// fillPath writes one GBM trajectory with step size 1
func fillPath(path Path, params SimulationParameters, src NormalSource) {
	driftTerm := params.Drift - 0.5*params.Volatility*params.Volatility
	diffusion := params.Volatility

	path[0] = params.InitialValue
	for t := 1; t < len(path); t++ {
		path[t] = path[t-1] * math.Exp(driftTerm+diffusion*src.NormFloat64())
	}
}
