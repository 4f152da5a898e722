package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job represents a scheduled task that runs inside the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs addressable by name, in registration order.
type Registry struct {
	order  []string
	byName map[string]Job
}

// NewRegistry registers the given jobs; nil jobs are ignored.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds a job. Names must be non-blank and unique.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job is required")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if r.byName == nil {
		r.byName = make(map[string]Job)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.byName[strings.TrimSpace(name)]
	return job, ok
}

// Names lists job names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Jobs returns the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name])
	}
	return jobs
}
