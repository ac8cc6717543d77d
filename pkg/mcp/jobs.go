package mcp

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tocgen/pkg/models"
	"tocgen/pkg/utils"
	"tocgen/pkg/watch"
)

// Job represents a background watch job
type Job struct {
	ID           string           `json:"id"`
	Files        []string         `json:"files"`
	Status       models.JobStatus `json:"status"`
	StartedAt    time.Time        `json:"started_at"`
	StoppedAt    time.Time        `json:"stopped_at,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`

	// Internal fields
	runner *watch.Runner
}

// JobManager manages background watch jobs
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	byfile map[string]string // absolute input path -> jobID for active jobs
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:   make(map[string]*Job),
		byfile: make(map[string]string),
	}
}

// ActiveJobForFile returns the running job watching the given absolute
// path, or nil.
func (m *JobManager) ActiveJobForFile(path string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if jobID, exists := m.byfile[path]; exists {
		job := m.jobs[jobID]
		if job != nil && !job.Status.IsTerminal() {
			return job
		}
	}
	return nil
}

// CreateJob registers a new running job around an already-constructed
// runner. files must be the runner's absolute input paths. The claim
// check and the registration happen under one lock: if any file is
// held by a live job, nothing is registered and the holding job is
// returned so callers can report it. The caller still owns the runner
// on refusal.
func (m *JobManager) CreateJob(files []string, runner *watch.Runner) (*Job, *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range files {
		if jobID, exists := m.byfile[f]; exists {
			if held := m.jobs[jobID]; held != nil && !held.Status.IsTerminal() {
				return nil, held
			}
		}
	}

	job := &Job{
		ID:        uuid.New().String(),
		Files:     files,
		Status:    models.JobStatusRunning,
		StartedAt: time.Now(),
		runner:    runner,
	}

	m.jobs[job.ID] = job
	for _, f := range files {
		m.byfile[f] = job.ID
	}

	return job, nil
}

// GetJob retrieves a job by ID
func (m *JobManager) GetJob(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[jobID]
}

// JobInfo is a point-in-time copy of a job's reportable fields.
type JobInfo struct {
	ID           string
	Files        []string
	Status       models.JobStatus
	StartedAt    time.Time
	StoppedAt    time.Time
	ErrorMessage string
}

// Snapshot returns a copy of the job's current state. Status and the
// stop fields mutate under the manager lock while the runner reports
// in, so readers take a snapshot instead of holding the *Job.
func (m *JobManager) Snapshot(jobID string) (JobInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return JobInfo{}, false
	}

	return JobInfo{
		ID:           job.ID,
		Files:        append([]string(nil), job.Files...),
		Status:       job.Status,
		StartedAt:    job.StartedAt,
		StoppedAt:    job.StoppedAt,
		ErrorMessage: job.ErrorMessage,
	}, true
}

// UpdateStatus updates the status of a job. Terminal statuses record
// the stop time and release the job's files for new jobs. A job that
// already reached a terminal status keeps it; the runner reporting in
// after a stop request must not move the stop time or flip the status.
func (m *JobManager) UpdateStatus(jobID string, status models.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status.IsTerminal() {
		return
	}

	job.Status = status
	if status.IsTerminal() {
		job.StoppedAt = time.Now()
		m.releaseFiles(job)
	}
	if errorMsg != "" {
		job.ErrorMessage = errorMsg
	}
}

// StopJob stops a running job. Returns false when the job had already
// reached a terminal status, and ErrJobNotFound for unknown IDs.
func (m *JobManager) StopJob(jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return false, fmt.Errorf("%w: %s", utils.ErrJobNotFound, jobID)
	}
	if job.Status.IsTerminal() {
		return false, nil
	}

	job.runner.Stop()
	job.Status = models.JobStatusStopped
	job.StoppedAt = time.Now()
	m.releaseFiles(job)
	return true, nil
}

// StopAll stops every running job
func (m *JobManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.Status.IsTerminal() {
			continue
		}
		job.runner.Stop()
		job.Status = models.JobStatusStopped
		job.StoppedAt = time.Now()
	}
	m.byfile = make(map[string]string)
}

// ListJobs returns all jobs
func (m *JobManager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// TargetStatuses returns the per-file regeneration state for a job,
// nil when the job does not exist.
func (m *JobManager) TargetStatuses(jobID string) []watch.TargetStatus {
	m.mu.RLock()
	job, exists := m.jobs[jobID]
	m.mu.RUnlock()

	if !exists {
		return nil
	}
	return job.runner.Status()
}

// releaseFiles drops the job's byfile claims. Caller holds the lock.
func (m *JobManager) releaseFiles(job *Job) {
	for _, f := range job.Files {
		if m.byfile[f] == job.ID {
			delete(m.byfile, f)
		}
	}
}
