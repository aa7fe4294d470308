// Package scheduler runs a directed acyclic graph of tasks — leaf
// texturing tasks with no dependencies, parent-tile tasks depending on
// every one of their children — on a worker pool bounded by a configured
// degree of parallelism. A task starts only once every dependency has
// completed, and a dependency's failure marks its descendants skipped
// rather than aborting the whole run.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// State is a task's terminal outcome.
type State int

const (
	Pending State = iota
	Succeeded
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Task is one unit of work: Run executes it, Deps names the IDs of tasks
// that must succeed first.
type Task struct {
	ID   string
	Deps []string
	Run  func(ctx context.Context) error
}

// Result records one task's terminal state.
type Result struct {
	State State
	Err   error
}

// Report is the outcome of a full scheduler run: every task's terminal
// state, suitable for building the "per-tileset report enumerating the
// failed tiles" the owning pipeline publishes alongside a successfully
// built root.
type Report struct {
	Results map[string]Result
}

// Failed returns the IDs of every task that failed outright (not
// transitively skipped).
func (r Report) Failed() []string {
	var out []string
	for id, res := range r.Results {
		if res.State == Failed {
			out = append(out, id)
		}
	}
	return out
}

// Succeeded reports whether id completed successfully.
func (r Report) Succeeded(id string) bool {
	res, ok := r.Results[id]
	return ok && res.State == Succeeded
}

type node struct {
	task          Task
	dependents    []string
	remainingDeps int
	blocked       bool // true once any ancestor has failed or been skipped
}

// Run executes every task in tasks respecting dependency order, using up
// to concurrency workers. It returns a Report even when some tasks fail;
// the only error Run itself returns is a graph-shape problem (unknown
// dependency, cycle) detected before any task runs.
func Run(ctx context.Context, tasks []Task, concurrency int) (Report, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	nodes := make(map[string]*node, len(tasks))
	for _, t := range tasks {
		nodes[t.ID] = &node{task: t}
	}
	for _, t := range tasks {
		for _, dep := range t.Deps {
			dn, ok := nodes[dep]
			if !ok {
				return Report{}, fmt.Errorf("scheduler: task %q depends on unknown task %q", t.ID, dep)
			}
			dn.dependents = append(dn.dependents, t.ID)
			nodes[t.ID].remainingDeps++
		}
	}
	if err := checkAcyclic(nodes); err != nil {
		return Report{}, err
	}

	var mu sync.Mutex
	results := make(map[string]Result, len(nodes))
	remaining := len(nodes)
	ready := make(chan *node, len(nodes))

	for _, n := range nodes {
		if n.remainingDeps == 0 {
			ready <- n
		}
	}
	if remaining == 0 {
		close(ready)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for n := range ready {
				runOne(gctx, n, nodes, &mu, results, &remaining, ready)
			}
			return nil
		})
	}
	// errgroup's worker goroutines never return a non-nil error (failures
	// are captured per-task in results, not propagated as a run error);
	// Wait only blocks until every worker has drained the ready channel.
	_ = g.Wait()

	return Report{Results: results}, nil
}

// runOne executes (or skips) one task, then advances every dependent
// whose last remaining dependency this was, closing the ready channel
// once every node has a terminal result.
func runOne(ctx context.Context, n *node, nodes map[string]*node, mu *sync.Mutex, results map[string]Result, remaining *int, ready chan *node) {
	var res Result
	switch {
	case n.blocked:
		res = Result{State: Skipped}
	case ctx.Err() != nil:
		res = Result{State: Skipped, Err: ctx.Err()}
	default:
		if err := n.task.Run(ctx); err != nil {
			res = Result{State: Failed, Err: err}
		} else {
			res = Result{State: Succeeded}
		}
	}

	mu.Lock()
	results[n.task.ID] = res
	*remaining--
	done := *remaining == 0

	failed := res.State != Succeeded
	for _, depID := range n.dependents {
		dn := nodes[depID]
		if failed {
			dn.blocked = true
		}
		dn.remainingDeps--
		if dn.remainingDeps == 0 {
			ready <- dn
		}
	}
	if done {
		close(ready)
	}
	mu.Unlock()
}

// checkAcyclic rejects a dependency graph with a cycle via Kahn's
// algorithm, before any task is dispatched.
func checkAcyclic(nodes map[string]*node) error {
	indeg := make(map[string]int, len(nodes))
	for id, n := range nodes {
		indeg[id] = n.remainingDeps
	}
	queue := make([]string, 0, len(nodes))
	for id, d := range indeg {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range nodes[id].dependents {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited != len(nodes) {
		return fmt.Errorf("scheduler: dependency graph contains a cycle")
	}
	return nil
}
