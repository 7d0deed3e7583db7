package canonify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/canonify/canonical"
	"github.com/hupe1980/canonify/cluster"
	"github.com/hupe1980/canonify/column"
	"github.com/hupe1980/canonify/llm"
	"github.com/hupe1980/canonify/resource"
	"github.com/hupe1980/canonify/similarity"
)

// Cleaner runs cleaning passes over columns. It holds configuration only and is safe
// for concurrent use.
type Cleaner struct {
	opts options
	llm  *llm.Client
}

// New creates a Cleaner.
func New(optFns ...Option) *Cleaner {
	o := applyOptions(optFns)
	c := &Cleaner{opts: o}
	if o.completer != nil {
		c.llm = llm.NewClient(o.completer,
			llm.WithController(o.controller),
			llm.WithObserver(o.metricsCollector.RecordProviderCall),
		)
	}
	return c
}

// Controller returns the controller governing provider calls.
func (c *Cleaner) Controller() *resource.Controller { return c.opts.controller }

// Result is the outcome of cleaning one column.
type Result struct {
	RunID string `json:"run_id"`
	// Column is the cleaned column. When a pass fails it holds the output of the
	// last successful pass.
	Column      column.Column `json:"-"`
	RowsChanged int           `json:"rows_changed"`
	Passes      []*PassResult `json:"passes"`
	// Err is the error that aborted the run, if any.
	Err error `json:"-"`
}

// Clean runs passes in order, each on the output of the previous one.
//
// Every pass is validated before the first one starts; a configuration error returns
// a nil Result. A failure during a pass returns the partial Result together with the
// error: the passes completed so far and their column are preserved.
func (c *Cleaner) Clean(ctx context.Context, col column.Column, passes []PassConfig) (*Result, error) {
	built := make([]*stages, len(passes))
	for i, p := range passes {
		st, err := c.build(i, p, col.Name)
		if err != nil {
			return nil, err
		}
		built[i] = st
	}

	res := &Result{
		RunID:  uuid.NewString(),
		Column: col,
		Passes: make([]*PassResult, 0, len(passes)),
	}
	logger := c.opts.logger.WithRunID(res.RunID).WithColumn(col.Name)

	for i, p := range passes {
		next, pr, err := c.run(ctx, logger, i, col.Name, res.Column, p, built[i], true)
		if err != nil {
			res.Err = fmt.Errorf("pass %d: %w", i, err)
			logger.LogColumn(ctx, len(res.Passes), res.RowsChanged, res.Err)
			return res, res.Err
		}
		res.Column = next
		res.RowsChanged += pr.ValuesChanged
		res.Passes = append(res.Passes, pr)
	}

	logger.LogColumn(ctx, len(res.Passes), res.RowsChanged, nil)
	return res, nil
}

// RunPass runs a single pass and returns the rewritten column.
func (c *Cleaner) RunPass(ctx context.Context, col column.Column, pass PassConfig) (column.Column, *PassResult, error) {
	st, err := c.build(0, pass, col.Name)
	if err != nil {
		return column.Column{}, nil, err
	}
	return c.run(ctx, c.opts.logger.WithColumn(col.Name), 0, col.Name, col, pass, st, true)
}

// Preview runs a pass without applying it. The returned PassResult describes the
// clusters and changes the pass would make; the column is not modified.
func (c *Cleaner) Preview(ctx context.Context, col column.Column, pass PassConfig) (*PassResult, error) {
	st, err := c.build(0, pass, col.Name)
	if err != nil {
		return nil, err
	}
	_, pr, err := c.run(ctx, c.opts.logger.WithColumn(col.Name), 0, col.Name, col, pass, st, false)
	return pr, err
}

// ColumnJob is one column and its passes for CleanColumns.
type ColumnJob struct {
	Column column.Column
	Passes []PassConfig
}

// ColumnResult is the outcome of one ColumnJob.
type ColumnResult struct {
	Name   string
	Result *Result
	Err    error
}

// CleanColumns cleans independent columns concurrently. Results are in job order.
// A failure, including a configuration error, affects only its own column.
func (c *Cleaner) CleanColumns(ctx context.Context, jobs []ColumnJob) []ColumnResult {
	out := make([]ColumnResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(c.opts.columnConcurrency)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := c.Clean(ctx, job.Column, job.Passes)
			out[i] = ColumnResult{Name: job.Column.Name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Cleaner) run(ctx context.Context, logger *Logger, index int, name string, col column.Column, p PassConfig, st *stages, apply bool) (column.Column, *PassResult, error) {
	start := time.Now()
	method := string(st.backend.Method())

	pr, mapping, err := c.pass(ctx, name, col, p, st)
	pr.Duration = time.Since(start)

	c.opts.metricsCollector.RecordPass(method, pr.Duration, pr.ValuesChanged, err)
	logger.LogPass(ctx, index, pr, err)
	if err != nil {
		return col, nil, err
	}
	for _, w := range pr.Warnings {
		logger.LogWarning(ctx, index, w)
	}

	if !apply || len(mapping) == 0 {
		return col, pr, nil
	}
	next, _ := mapping.Apply(col)
	return next, pr, nil
}

// pass computes the mapping of one pass. The returned PassResult is never nil.
func (c *Cleaner) pass(ctx context.Context, name string, col column.Column, p PassConfig, st *stages) (*PassResult, column.Mapping, error) {
	vs := column.Build(col)
	values := vs.Values()
	n := len(values)

	pr := &PassResult{
		Name:              p.Name,
		SimilarityMethod:  st.backend.Method(),
		SimilarityParams:  st.simParams,
		ClusteringParams:  st.clusterParams,
		CanonicalStrategy: st.selector.Strategy(),
		UniqueBefore:      n,
		UniqueAfter:       n,
		ClusterTable:      []ClusterEntry{},
		DirectPartition:   st.direct,
	}
	if st.clusterer != nil {
		pr.ClusteringMethod = st.clusterer.Method()
	}

	if n < 2 {
		for _, v := range values {
			pr.ClusterTable = append(pr.ClusterTable, ClusterEntry{Members: []string{v}, Canonical: v})
		}
		return pr, nil, nil
	}

	part, err := c.partition(ctx, values, st, pr)
	if err != nil {
		return pr, nil, err
	}
	if err := part.Validate(n); err != nil {
		producer := string(pr.ClusteringMethod)
		if st.direct {
			producer = "llm partition"
		}
		return pr, nil, fmt.Errorf("%s produced %w", producer, err)
	}

	choices, err := c.selectCanonicals(ctx, name, p.Context, vs, part, st.selector)
	if err != nil {
		return pr, nil, err
	}

	mapping := make(column.Mapping, n)
	canonicals := make(map[string]struct{}, len(part))
	for ci, members := range part {
		choice := choices[ci]
		entry := ClusterEntry{Members: make([]string, len(members)), Canonical: choice.Value}
		for k, idx := range members {
			e := vs.Entry(idx)
			entry.Members[k] = e.Value
			mapping[e.Value] = choice.Value
			if e.Value != choice.Value {
				pr.ValuesChanged += e.Count
			}
		}
		canonicals[choice.Value] = struct{}{}
		pr.ClusterTable = append(pr.ClusterTable, entry)
		pr.Warnings = append(pr.Warnings, choice.Warnings...)
	}
	pr.UniqueAfter = len(canonicals)
	return pr, mapping, nil
}

func (c *Cleaner) partition(ctx context.Context, values []string, st *stages, pr *PassResult) (cluster.Partition, error) {
	if st.direct {
		groups, err := st.backend.(similarity.Partitioner).Partition(ctx, values)
		if err != nil {
			return nil, err
		}
		return cluster.Partition(groups), nil
	}

	m, err := st.backend.Compute(ctx, values)
	if err != nil {
		return nil, err
	}
	in := cluster.Input{Matrix: m, Values: values}

	if t, ok := st.clusterer.(cluster.Tuner); ok {
		part, report, err := t.Tune(ctx, in)
		if err != nil {
			return nil, err
		}
		params := make(map[string]any, len(pr.ClusteringParams)+3)
		for k, v := range pr.ClusteringParams {
			params[k] = v
		}
		params["preference"] = report.Preference
		params["rounds"] = report.Rounds
		params["satisfactory"] = report.Satisfactory
		pr.ClusteringParams = params
		return part, nil
	}
	return st.clusterer.Cluster(ctx, in)
}

// selectCanonicals chooses one value per cluster and returns the results in partition
// order. most_frequent runs inline; other strategies handle clusters concurrently.
func (c *Cleaner) selectCanonicals(ctx context.Context, name, domain string, vs *column.ValueSet, part cluster.Partition, sel canonical.Selector) ([]canonical.Choice, error) {
	if domain == "" {
		domain = name
	}
	cands := make([]canonical.Candidates, len(part))
	for ci, members := range part {
		cc := canonical.Candidates{
			Members:   make([]string, len(members)),
			Counts:    make([]int, len(members)),
			FirstRows: make([]int, len(members)),
			Context:   domain,
		}
		for k, idx := range members {
			e := vs.Entry(idx)
			cc.Members[k] = e.Value
			cc.Counts[k] = e.Count
			cc.FirstRows[k] = e.FirstRow
		}
		cands[ci] = cc
	}

	choices := make([]canonical.Choice, len(part))
	if sel.Strategy() == canonical.StrategyMostFrequent {
		for ci := range cands {
			choice, err := sel.Select(ctx, cands[ci])
			if err != nil {
				return nil, err
			}
			choices[ci] = choice
		}
		return choices, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.opts.controller.MaxConcurrentCalls()))
	for ci := range cands {
		g.Go(func() error {
			choice, err := sel.Select(gctx, cands[ci])
			if err != nil {
				return err
			}
			choices[ci] = choice
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return choices, nil
}
