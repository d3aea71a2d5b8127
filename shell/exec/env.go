package exec

import "sync"

// Env is the shell's variable/positional-parameter store. It
// implements shell/expand.Env directly so the expander can read and
// occasionally write through it (`${NAME:=default}`), and tracks which
// bindings are exported so the executor knows which ones to copy into
// a dispatched command's child environment.
type Env struct {
	mu         sync.Mutex
	vars       map[string]string
	exported   map[string]bool
	positional []string
	status     int
}

// DefaultEnv builds the standard startup environment, all exported (a
// freshly started shell's env is visible to every child command, same
// as a real login shell).
func DefaultEnv() *Env {
	e := &Env{vars: make(map[string]string), exported: make(map[string]bool)}
	defaults := map[string]string{
		"HOME":     "/home/user",
		"USER":     "user",
		"SHELL":    "/bin/sh",
		"PATH":     "/usr/bin:/bin",
		"TERM":     "xterm-256color",
		"PWD":      "/home/user",
		"HOSTNAME": "lifo",
	}
	for k, v := range defaults {
		e.vars[k] = v
		e.exported[k] = true
	}
	return e
}

func (e *Env) Get(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vars[name]
	return v, ok
}

// Set binds name to value as a non-exported shell variable unless it
// was already exported, in which case it stays exported (`export`
// promotes permanently; lifo has no unexport to reverse it).
func (e *Env) Set(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = value
}

// Export marks name for inheritance into child command environments,
// optionally setting its value in the same call (`export NAME=VALUE`).
func (e *Env) Export(name string, value string, hasValue bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hasValue {
		e.vars[name] = value
	}
	e.exported[name] = true
}

// Unset removes a variable entirely.
func (e *Env) Unset(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.vars, name)
	delete(e.exported, name)
}

// Exported returns a fresh copy of every exported binding, the base a
// dispatched command's child environment is built from.
func (e *Env) Exported() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.exported))
	for name := range e.exported {
		out[name] = e.vars[name]
	}
	return out
}

// All returns a copy of every shell variable, exported or not (used by
// `export` with no arguments, which lists the export table, and by
// debugging/introspection surfaces).
func (e *Env) All() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

func (e *Env) IsExported(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exported[name]
}

func (e *Env) SetPositional(args []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positional = append([]string(nil), args...)
}

func (e *Env) Positional() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.positional...)
}

func (e *Env) SetExitStatus(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = code
}

func (e *Env) ExitStatus() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Aliases is the `alias`/`unalias` table: a word-for-word substitution
// of a simple command's first word, expanded before builtin/registry
// dispatch.
type Aliases struct {
	mu   sync.Mutex
	vals map[string]string
}

// NewAliases constructs an empty alias table.
func NewAliases() *Aliases {
	return &Aliases{vals: make(map[string]string)}
}

func (a *Aliases) Set(name, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vals[name] = value
}

func (a *Aliases) Get(name string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.vals[name]
	return v, ok
}

func (a *Aliases) Unset(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.vals, name)
}

// List returns a copy of every alias as a name-to-value map. The map
// has no order; the `alias` builtin sorts the names before printing.
func (a *Aliases) List() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.vals))
	for k, v := range a.vals {
		out[k] = v
	}
	return out
}
