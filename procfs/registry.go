// Package procfs implements process and job control: a PID-allocating
// process registry with status-transition lifecycle, and a job table
// layering background-pipeline bookkeeping on top of it. Built around
// a sync.Mutex-guarded map-of-records register/lookup/reap idiom.
package procfs

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lifo-sh/lifo/internal/vprovider"
)

// Status is a process's lifecycle state.
type Status string

const (
	Running  Status = "running"
	Sleeping Status = "sleeping"
	Stopped  Status = "stopped"
	Zombie   Status = "zombie"
)

// ShellPID is the reserved PID of the shell itself: it is never
// assigned to a spawned process and may not be killed or reaped.
const ShellPID = 1

// firstSpawnedPID is the first PID the allocator hands out; PID 1 is
// reserved for the shell.
const firstSpawnedPID = 2

// Signal names the registry records alongside a kill. Supported
// signal names are accepted and recorded but carry no different
// behavior beyond cancellation; KILL included, every name only fires
// the process's cooperative cancellation token, and none is immediate.
type Signal string

// The conventional POSIX subset a shell's `kill`/`trap` surface needs;
// names are accepted and recorded, not independently enforced.
const (
	SIGTERM Signal = "TERM"
	SIGINT  Signal = "INT"
	SIGKILL Signal = "KILL"
	SIGSTOP Signal = "STOP"
	SIGCONT Signal = "CONT"
	SIGHUP  Signal = "HUP"
	SIGQUIT Signal = "QUIT"
)

// CancelFunc fires a process's cooperative cancellation token.
type CancelFunc func()

// Process is one process-table record. Mutation happens only through
// Registry methods; callers observing the table take a Snapshot
// rather than holding a *Process across calls.
type Process struct {
	PID          int
	PPID         int
	JobID        int // 0 when not part of a background job
	Command      string
	Args         []string
	Cwd          string
	Env          map[string]string
	Status       Status
	Signal       Signal // last signal recorded by Kill, if any
	IsForeground bool
	StartedAt    time.Time
	ExitCode     *int

	cancel CancelFunc
}

// Registry is the process table: PID allocation, lifecycle
// transitions, and zombie reaping. A single Registry is shared by the
// whole shell session; the executor is its only mutator.
type Registry struct {
	mu      sync.Mutex
	nextPID int
	procs   map[int]*Process
	logger  *slog.Logger
}

// NewRegistry constructs an empty Registry. PID 1 is reserved for the
// shell up front so Lookup(1) and the kill/reap exemption have
// something to check against even before any child is spawned.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{nextPID: firstSpawnedPID, procs: make(map[int]*Process), logger: logger}
	r.procs[ShellPID] = &Process{PID: ShellPID, PPID: 0, Command: "sh", Status: Running, StartedAt: time.Now(), IsForeground: true}
	return r
}

// RegisterOptions carries the fields Register needs that the caller
// decides per spawn.
type RegisterOptions struct {
	PPID         int
	Command      string
	Args         []string
	Cwd          string
	Env          map[string]string
	IsForeground bool
	Cancel       CancelFunc
}

// Register allocates the next PID and places a new running process
// record. PIDs are monotonically assigned and never reused within a
// session, even across reaps.
func (r *Registry) Register(opts RegisterOptions) *Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	pid := r.nextPID
	r.nextPID++
	p := &Process{
		PID: pid, PPID: opts.PPID, Command: opts.Command, Args: opts.Args,
		Cwd: opts.Cwd, Env: opts.Env, Status: Running, IsForeground: opts.IsForeground,
		StartedAt: time.Now(), cancel: opts.Cancel,
	}
	r.procs[pid] = p
	r.logger.Debug("process registered", "pid", pid, "ppid", opts.PPID, "command", opts.Command)
	return p
}

// validTransition is the closed set of permitted status transitions:
// running<->sleeping, running->stopped, stopped->running, and
// any->zombie.
func validTransition(from, to Status) bool {
	if to == Zombie {
		return true
	}
	switch from {
	case Running:
		return to == Sleeping || to == Stopped
	case Sleeping:
		return to == Running
	case Stopped:
		return to == Running
	default:
		return false
	}
}

// UpdateStatus transitions pid to s, recording exitCode when s is
// Zombie. An invalid transition (including any transition on an
// already-zombie process) is a no-op reported via the returned error.
func (r *Registry) UpdateStatus(pid int, s Status, exitCode *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.procs[pid]
	if !ok {
		return fmt.Errorf("procfs: no such pid %d", pid)
	}
	if !validTransition(p.Status, s) {
		return fmt.Errorf("procfs: invalid transition %s -> %s for pid %d", p.Status, s, pid)
	}
	p.Status = s
	if s == Zombie {
		p.ExitCode = exitCode
	}
	return nil
}

// Reap removes a zombie process's record. Reaping a non-zombie, a
// nonexistent PID, or PID 1 is a no-op.
func (r *Registry) Reap(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pid == ShellPID {
		return
	}
	p, ok := r.procs[pid]
	if !ok || p.Status != Zombie {
		return
	}
	delete(r.procs, pid)
}

// Kill fires pid's cancellation token and records the signal name.
// PID 1 is exempt. KILL is recorded the same as any other signal; the
// registry itself has no separate "immediate" code path beyond the
// fact that cooperative cancellation is the only mechanism it offers.
func (r *Registry) Kill(pid int, sig Signal) error {
	r.mu.Lock()
	p, ok := r.procs[pid]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("procfs: no such pid %d", pid)
	}
	if pid == ShellPID {
		r.mu.Unlock()
		return fmt.Errorf("procfs: pid 1 cannot be killed")
	}
	p.Signal = sig
	cancel := p.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Lookup returns a copy of pid's current record.
func (r *Registry) Lookup(pid int) (Process, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.procs[pid]
	if !ok {
		return Process{}, false
	}
	return *p, true
}

// GetAll returns a snapshot of every process record, for observers
// that must not retain a live pointer into the table.
func (r *Registry) GetAll() []Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Process, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, *p)
	}
	return out
}

// Snapshot implements vprovider.ProcessLister, feeding ProcProvider's
// /proc/<pid>/status enrichment without vprovider importing procfs.
func (r *Registry) Snapshot() []vprovider.ProcessSnapshot {
	all := r.GetAll()
	out := make([]vprovider.ProcessSnapshot, len(all))
	for i, p := range all {
		out[i] = vprovider.ProcessSnapshot{PID: p.PID, PPID: p.PPID, Status: string(p.Status), Command: p.Command}
	}
	return out
}
