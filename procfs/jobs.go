package procfs

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Job is a background pipeline tracked by a shell-visible job id. A
// Job always has at least one member PID (its last pipeline stage is
// the one whose exit status the job reports once finished).
type Job struct {
	ID      int
	PIDs    []int
	Command string // the pipeline's source text, for the `jobs` builtin
}

// JobTable assigns per-shell monotonic job ids to background
// pipelines. Ids are reused only after the job is reaped, unlike
// PIDs, which are never recycled.
type JobTable struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]*Job
	procs  *Registry
}

// NewJobTable constructs a JobTable layered over procs, the process
// registry used to resolve a job's live/done state and its PIDs'
// statuses.
func NewJobTable(procs *Registry) *JobTable {
	return &JobTable{nextID: 1, jobs: make(map[int]*Job), procs: procs}
}

// Add registers a new background job with one or more member PIDs
// (one per pipeline stage) and returns its assigned job id.
func (jt *JobTable) Add(command string, pids []int) int {
	jt.mu.Lock()
	defer jt.mu.Unlock()
	if len(jt.jobs) == 0 {
		// Ids restart once every job has been reaped, so a long-lived
		// shell session doesn't count its jobs into the hundreds.
		jt.nextID = 1
	}
	id := jt.nextID
	jt.nextID++
	jt.jobs[id] = &Job{ID: id, PIDs: append([]int(nil), pids...), Command: command}
	return id
}

// GetByJobID returns the job registered under id.
func (jt *JobTable) GetByJobID(id int) (Job, bool) {
	jt.mu.Lock()
	defer jt.mu.Unlock()
	j, ok := jt.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Reap removes a job's bookkeeping entry once every member PID has
// become a zombie and been reaped from the process registry; it does
// not itself reap PIDs.
func (jt *JobTable) Reap(id int) {
	jt.mu.Lock()
	defer jt.mu.Unlock()
	delete(jt.jobs, id)
}

// GetBackgroundJobs lists every currently-tracked job whose last
// member PID is still live (not yet reaped from the process
// registry), i.e. the set the `jobs` builtin enumerates.
func (jt *JobTable) GetBackgroundJobs() []Job {
	jt.mu.Lock()
	ids := make([]*Job, 0, len(jt.jobs))
	for _, j := range jt.jobs {
		ids = append(ids, j)
	}
	jt.mu.Unlock()

	var out []Job
	for _, j := range ids {
		if len(j.PIDs) == 0 {
			continue
		}
		last := j.PIDs[len(j.PIDs)-1]
		if _, ok := jt.procs.Lookup(last); ok {
			out = append(out, *j)
		}
	}
	return out
}

// ResolveSpec parses a job/kill spec of the form "%N" (job N),
// "%%"/"%+" (the most recently added job), or a bare integer (a raw
// PID), returning the PID that `kill`/`fg`/`bg` should target.
func (jt *JobTable) ResolveSpec(spec string) (pid int, err error) {
	if !strings.HasPrefix(spec, "%") {
		n, err := strconv.Atoi(spec)
		if err != nil {
			return 0, fmt.Errorf("procfs: invalid pid %q", spec)
		}
		return n, nil
	}
	rest := spec[1:]
	jt.mu.Lock()
	defer jt.mu.Unlock()
	if rest == "" || rest == "%" || rest == "+" {
		best := -1
		for id := range jt.jobs {
			if id > best {
				best = id
			}
		}
		if best < 0 {
			return 0, fmt.Errorf("procfs: no current job")
		}
		return jt.pidsLast(best)
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("procfs: invalid job spec %q", spec)
	}
	return jt.pidsLast(n)
}

// pidsLast returns the last member PID of job id. Caller must hold
// jt.mu.
func (jt *JobTable) pidsLast(id int) (int, error) {
	j, ok := jt.jobs[id]
	if !ok || len(j.PIDs) == 0 {
		return 0, fmt.Errorf("procfs: no such job %d", id)
	}
	return j.PIDs[len(j.PIDs)-1], nil
}

// StatusLine renders a job the way the `jobs` builtin prints it:
// "[id] Status command".
func (j Job) StatusLine(status Status) string {
	word := "Running"
	switch status {
	case Stopped:
		word = "Stopped"
	case Zombie:
		word = "Done"
	case Sleeping:
		word = "Running"
	}
	return fmt.Sprintf("[%d] %s  %s", j.ID, word, j.Command)
}
