package vprovider

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ProcessSnapshot is the minimal process-table fact ProcProvider needs
// to render /proc/<pid>/status. Kept local (rather than importing
// package procfs) so vprovider has no dependency on the shell/process
// layer; procfs.Registry satisfies ProcessLister directly.
type ProcessSnapshot struct {
	PID     int
	PPID    int
	Status  string
	Command string
}

// ProcessLister supplies the live process table backing each
// "/proc/<pid>/status" entry.
type ProcessLister interface {
	Snapshot() []ProcessSnapshot
}

// ProcProvider exposes a shallow, read-only, computed-on-demand /proc
// tree: cpuinfo, meminfo, uptime, version, net/info, and (enrichment)
// one status file per live process.
type ProcProvider struct {
	startedAt time.Time
	hostname  string
	procs     ProcessLister
}

// NewProcProvider constructs a ProcProvider. procs may be nil, in which
// case no per-pid entries are exposed.
func NewProcProvider(hostname string, procs ProcessLister) *ProcProvider {
	return &ProcProvider{startedAt: time.Now(), hostname: hostname, procs: procs}
}

var procLeaves = []string{"cpuinfo", "meminfo", "uptime", "version"}

func (p *ProcProvider) ReadFile(subpath string) ([]byte, error) {
	s, err := p.ReadFileString(subpath)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (p *ProcProvider) ReadFileString(subpath string) (string, error) {
	sub := strings.TrimPrefix(strings.Trim(subpath, "/"), "/")
	switch sub {
	case "cpuinfo":
		return p.cpuinfo(), nil
	case "meminfo":
		return p.meminfo(), nil
	case "uptime":
		return p.uptime(), nil
	case "version":
		return p.version(), nil
	case "net/info":
		return p.netInfo(), nil
	}
	if status, ok := p.pidStatus(sub); ok {
		return status, nil
	}
	return "", ErrNotExist
}

func (p *ProcProvider) pidStatus(sub string) (string, bool) {
	parts := strings.Split(sub, "/")
	if len(parts) != 2 || parts[1] != "status" {
		return "", false
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || p.procs == nil {
		return "", false
	}
	for _, ps := range p.procs.Snapshot() {
		if ps.PID == pid {
			return fmt.Sprintf("pid:\t%d\nppid:\t%d\nstate:\t%s\ncmd:\t%s\n",
				ps.PID, ps.PPID, ps.Status, ps.Command), true
		}
	}
	return "", false
}

func (p *ProcProvider) Exists(subpath string) bool {
	_, err := p.Stat(subpath)
	return err == nil
}

func (p *ProcProvider) Stat(subpath string) (Stat, error) {
	sub := strings.Trim(subpath, "/")
	if sub == "" {
		return Stat{Name: "/", IsDir: true, Mode: 0o555}, nil
	}
	if sub == "net" {
		return Stat{Name: "net", IsDir: true, Mode: 0o555}, nil
	}
	if pid, ok := p.pidDir(sub); ok {
		_ = pid
		return Stat{Name: sub, IsDir: true, Mode: 0o555}, nil
	}
	if _, err := p.ReadFileString(subpath); err == nil {
		name := sub
		if idx := strings.LastIndexByte(sub, '/'); idx >= 0 {
			name = sub[idx+1:]
		}
		return Stat{Name: name, IsDir: false, Mode: 0o444}, nil
	}
	return Stat{}, ErrNotExist
}

func (p *ProcProvider) pidDir(sub string) (int, bool) {
	if strings.Contains(sub, "/") {
		return 0, false
	}
	pid, err := strconv.Atoi(sub)
	if err != nil || p.procs == nil {
		return 0, false
	}
	for _, ps := range p.procs.Snapshot() {
		if ps.PID == pid {
			return pid, true
		}
	}
	return 0, false
}

func (p *ProcProvider) Readdir(subpath string) ([]string, error) {
	sub := strings.Trim(subpath, "/")
	switch sub {
	case "":
		names := append([]string(nil), procLeaves...)
		names = append(names, "net")
		if p.procs != nil {
			for _, ps := range p.procs.Snapshot() {
				names = append(names, strconv.Itoa(ps.PID))
			}
		}
		return names, nil
	case "net":
		return []string{"info"}, nil
	}
	if pid, ok := p.pidDir(sub); ok {
		_ = pid
		return []string{"status"}, nil
	}
	return nil, ErrNotDir
}

func (p *ProcProvider) cpuinfo() string {
	return fmt.Sprintf("processor\t: 0\nvendor_id\t: lifo\ncpu cores\t: %d\n", runtime.NumCPU())
}

func (p *ProcProvider) meminfo() string {
	var m runtimeMemStats
	m.read()
	return fmt.Sprintf("MemTotal:\t%d kB\nMemFree:\t%d kB\n", m.sys/1024, m.idle/1024)
}

func (p *ProcProvider) uptime() string {
	d := time.Since(p.startedAt).Seconds()
	return fmt.Sprintf("%.2f %.2f\n", d, d)
}

func (p *ProcProvider) version() string {
	return fmt.Sprintf("lifo version 1.0 (%s %s)\n", runtime.GOOS, runtime.GOARCH)
}

func (p *ProcProvider) netInfo() string {
	host := p.hostname
	if host == "" {
		host = "lifo"
	}
	return fmt.Sprintf("hostname: %s\ninterfaces: lo\n", host)
}
