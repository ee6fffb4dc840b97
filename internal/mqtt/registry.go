package mqtt

import (
	"sort"
	"sync"
	"time"
)

// PendingJob is a dispatched render job awaiting completion.
type PendingJob struct {
	Job          RenderJob
	DispatchedAt time.Time
}

// JobTracker records dispatched render jobs keyed by scene record file.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*PendingJob
	now  func() time.Time
}

func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*PendingJob),
		now:  time.Now,
	}
}

// Add records a job as dispatched now. Re-adding a job restarts its clock.
func (t *JobTracker) Add(job RenderJob) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[job.SceneConfigFile] = &PendingJob{Job: job, DispatchedAt: t.now()}
}

// Complete removes and returns the job for a record file.
func (t *JobTracker) Complete(file string) (PendingJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[file]
	if !ok {
		return PendingJob{}, false
	}
	delete(t.jobs, file)
	return *job, true
}

// Get returns a copy of a pending job.
func (t *JobTracker) Get(file string) (PendingJob, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if job, ok := t.jobs[file]; ok {
		return *job, true
	}
	return PendingJob{}, false
}

// Pending returns all pending jobs ordered by dispatch time.
func (t *JobTracker) Pending() []PendingJob {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]PendingJob, 0, len(t.jobs))
	for _, job := range t.jobs {
		result = append(result, *job)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DispatchedAt.Equal(result[j].DispatchedAt) {
			return result[i].Job.SceneConfigFile < result[j].Job.SceneConfigFile
		}
		return result[i].DispatchedAt.Before(result[j].DispatchedAt)
	})
	return result
}

// Len returns the number of pending jobs.
func (t *JobTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

// Expire removes and returns the jobs pending for longer than timeout.
func (t *JobTracker) Expire(timeout time.Duration) []PendingJob {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var expired []PendingJob
	for file, job := range t.jobs {
		if now.Sub(job.DispatchedAt) > timeout {
			expired = append(expired, *job)
			delete(t.jobs, file)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].Job.SceneConfigFile < expired[j].Job.SceneConfigFile
	})
	return expired
}

func (t *JobTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs = make(map[string]*PendingJob)
}
