package convert

import (
	"sync"

	"github.com/Arthur2500/ConvertZ/internal/sanitize"
)

// Orchestrator fans out one conversion job per uploaded file and joins on
// the full set. Delivery is all-or-nothing: any job failure fails the
// request, but siblings are never cancelled and their outputs are left for
// the retention sweeper.
type Orchestrator struct {
	runner  *Runner
	maxJobs int
}

func NewOrchestrator(runner *Runner, maxJobs int) *Orchestrator {
	return &Orchestrator{runner: runner, maxJobs: maxJobs}
}

// RunAll starts every job concurrently and waits for all of them. On full
// success it returns output paths in input order; otherwise the first error
// by input order.
func (o *Orchestrator) RunAll(jobs []Job, params sanitize.Params) ([]string, error) {
	outputs := make([]string, len(jobs))
	errs := make([]error, len(jobs))

	var sem chan struct{}
	if o.maxJobs > 0 {
		sem = make(chan struct{}, o.maxJobs)
	}

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			outputs[i], errs[i] = o.runner.Run(job, params)
		}(i, job)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return outputs, nil
}
