package pathfind

import (
	"runtime"

	"github.com/roadsim/roadsim/sim/roadnet"
	"golang.org/x/sync/errgroup"
)

// Request is one (start, goal) pair of a bulk spawn.
type Request struct {
	Start roadnet.LaneID
	Goal  roadnet.LaneID
}

// Result pairs a request with its route. Found is false when the goal is
// unreachable.
type Result struct {
	Request
	Path  []roadnet.LaneID
	Found bool
}

// FindPaths runs find for every request on a pool of at most workers
// goroutines (GOMAXPROCS when workers < 1) and blocks until all are done.
// Results are returned in request order regardless of completion order.
// Workers only read m; callers must not mutate it until FindPaths returns.
func FindPaths(m *roadnet.Map, requests []Request, workers int, find Finder) []Result {
	if find == nil {
		find = FindPath
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(requests))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			steps, ok := find(m, req.Start, req.Goal)
			results[i] = Result{Request: req, Path: steps, Found: ok}
			return nil
		})
	}
	// workers never fail; a missing route is reported through Result.Found
	_ = g.Wait()
	return results
}
