package pivot

import (
	"errors"
	"fmt"
	"time"

	"pivotgrid/app/cache"
)

// Engine runs pivot computations. It holds the result cache and the
// batch size used to yield the scheduler during long passes. The zero
// value is not usable; construct with New.
type Engine struct {
	cache     *cache.Cache
	batchSize int
	logger    Logger
}

// New creates an engine. The cache may be nil, in which case ComputeCached
// degrades to ComputePivot.
func New(c *cache.Cache, batchSize int, logger Logger) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Engine{
		cache:     c,
		batchSize: batchSize,
		logger:    logger,
	}
}

// ComputePivot runs the full pipeline: validate, filter, group,
// aggregate, build the matrix. Configuration problems are reported as a
// ConfigurationError before any rows are touched.
func (e *Engine) ComputePivot(rows []DataRow, cfg *Configuration, expandedPaths [][]string) (*Result, error) {
	start := time.Now()

	if problems := ValidateConfiguration(cfg, rows); len(problems) > 0 {
		return nil, &ConfigurationError{Problems: problems}
	}
	if err := checkAggregations(cfg.Values); err != nil {
		return nil, &ComputationError{Stage: "aggregate", Err: err}
	}

	filtered := applyFilters(rows, cfg.Filters, e.logger, e.batchSize)

	buckets := make(map[groupKey]*bucket)
	if err := groupRows(filtered, cfg, buckets, e.batchSize); err != nil {
		return nil, &ComputationError{Stage: "group", Err: err}
	}

	structure := buildStructure(buckets, cfg, expandedPaths)
	structure.Summary.TotalDataRows = len(filtered)
	structure.Summary.SourceRows = len(rows)
	structure.Summary.ComputationTime = time.Since(start)

	e.logf("debug", fmt.Sprintf("[PIVOT_COMPUTE] Rows: %d, Filtered: %d, Matrix: %dx%d, Time: %s",
		len(rows), len(filtered), structure.RowCount, structure.ColumnCount,
		time.Since(start).Round(time.Millisecond)))

	state := &pivotState{
		cfg:          *cfg,
		expanded:     expandedPaths,
		buckets:      buckets,
		filteredRows: len(filtered),
		sourceRows:   len(rows),
	}
	return &Result{Structure: structure, state: state}, nil
}

// ComputeCached checks the cache before computing, and stores fresh
// results for later hits. Cached results are marked in the summary.
func (e *Engine) ComputeCached(rows []DataRow, cfg *Configuration, expandedPaths [][]string) (*Result, error) {
	if e.cache == nil {
		return e.ComputePivot(rows, cfg, expandedPaths)
	}

	key := Fingerprint(rows, cfg, expandedPaths)
	if entry, ok := e.cache.Get(key); ok {
		// The cached structure is shared between hits, so the summary
		// flag is set on a copy rather than the stored value.
		structure := *entry.Structure
		structure.Summary.Cached = true
		res := &Result{Structure: &structure}
		if state, ok := entry.State.(*pivotState); ok {
			res.state = state
		}
		return res, nil
	}

	res, err := e.ComputePivot(rows, cfg, expandedPaths)
	if err != nil {
		return nil, err
	}
	e.cache.Store(key, res.Structure, res.state, res.state.approxSize())
	return res, nil
}

// Update folds delta rows into a prior result, falling back to a full
// recompute over rows (the combined dataset) when the prior result
// cannot be updated in place.
func (e *Engine) Update(prior *Result, rows, delta []DataRow, cfg *Configuration, expandedPaths [][]string) (*Result, error) {
	res, err := UpdateIncremental(prior, delta, cfg, expandedPaths)
	if err == nil {
		e.logf("debug", fmt.Sprintf("[PIVOT_UPDATE] Delta: %d rows, Matrix: %dx%d",
			len(delta), res.Structure.RowCount, res.Structure.ColumnCount))
		return res, nil
	}
	if !errors.Is(err, ErrNotIncremental) {
		return nil, err
	}

	e.logf("debug", fmt.Sprintf("[PIVOT_UPDATE_FALLBACK] Recomputing %d rows", len(rows)))
	return e.ComputePivot(rows, cfg, expandedPaths)
}

// DrillDown returns the filtered source rows behind one cell.
func (e *Engine) DrillDown(rows []DataRow, cfg *Configuration, rowPath, colPath []string) []DataRow {
	return DrillDown(rows, cfg, rowPath, colPath, e.logger)
}

// CacheStats exposes the result cache counters. Returns the zero value
// when no cache is attached.
func (e *Engine) CacheStats() cache.CacheStats {
	if e.cache == nil {
		return cache.CacheStats{}
	}
	return e.cache.GetCacheStats()
}

// InvalidateCache drops all cached results.
func (e *Engine) InvalidateCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

func (e *Engine) logf(level, message string) {
	if e.logger != nil {
		e.logger.Log(level, message)
	}
}

// approxSize estimates the memory held by the retained accumulator
// state, for cache accounting.
func (s *pivotState) approxSize() int64 {
	if s == nil {
		return 0
	}

	size := int64(0)
	for _, b := range s.buckets {
		for _, v := range b.rowTuple {
			size += int64(len(v))
		}
		for _, v := range b.colTuple {
			size += int64(len(v))
		}
		for _, a := range b.accs {
			size += 96 // accumulator struct
			for d := range a.distinct {
				size += int64(len(d)) + 16
			}
		}
		size += 80 // bucket struct and map entry
	}
	return size
}
