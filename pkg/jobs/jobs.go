// Package jobs holds the periodic maintenance jobs of the server.
package jobs

import (
	"context"
	"sort"
	"sync"
)

// Job is a job that can be registered with the scheduler.
type Job struct {
	ID     int
	Runner Runner
}

// Runner is a job runner.
type Runner interface {
	// Spec returns the cron schedule of the job. An empty spec disables it.
	Spec(context.Context) string
	// Func returns the job body.
	Func(context.Context) func()
}

var (
	mtx  sync.Mutex
	jobs = make(map[string]*Job)
)

// Register registers a job.
func Register(name string, runner Runner) {
	mtx.Lock()
	defer mtx.Unlock()
	jobs[name] = &Job{Runner: runner}
}

// List returns the registered jobs by name.
func List() map[string]*Job {
	mtx.Lock()
	defer mtx.Unlock()
	return jobs
}

// Names returns the sorted names of the registered jobs.
func Names() []string {
	mtx.Lock()
	defer mtx.Unlock()
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
