package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/lifo-sh/lifo/internal/blobstore"
	"github.com/lifo-sh/lifo/internal/contentstore"
	"github.com/lifo-sh/lifo/internal/mountprovider"
	"github.com/lifo-sh/lifo/internal/persistence"
	"github.com/lifo-sh/lifo/internal/vfs"
	"github.com/lifo-sh/lifo/internal/vprovider"
	"github.com/lifo-sh/lifo/procfs"
	"github.com/lifo-sh/lifo/shell/exec"
)

// kernelOptions carries the embedder-tunable knobs exposed as cobra
// flags: storage budget, host mounts, and session persistence.
type kernelOptions struct {
	storeBytes  int64
	mountHost   string
	mountPoint  string
	mountRO     bool
	persistPath string
	logger      *slog.Logger
}

// kernel bundles one running Lifo instance: its VFS, process/job
// tables, and the executor driving the shell loop. There is no
// on-disk config file; every knob is a constructor argument or flag.
type kernel struct {
	vfs        *vfs.VFS
	procs      *procfs.Registry
	jobs       *procfs.JobTable
	persistMgr *persistence.Manager
	executor   *exec.Executor
}

func newKernel(opts kernelOptions) (*kernel, error) {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	store := contentstore.New(opts.storeBytes, logger)
	v := vfs.New(store, logger)

	procs := procfs.NewRegistry(logger)
	v.RegisterVirtualProvider("/proc", vprovider.NewProcProvider("lifo", procs))
	v.RegisterVirtualProvider("/dev", vprovider.NewDevProvider())

	if opts.mountHost != "" {
		v.RegisterMountProvider(opts.mountPoint, mountprovider.NewNativeFsProvider(opts.mountHost, opts.mountRO))
	}

	var persistMgr *persistence.Manager
	if opts.persistPath != "" {
		backend := blobstore.NewDurable(opts.persistPath)
		if err := backend.Open(context.Background()); err != nil {
			return nil, err
		}
		v.SetBlobStore(backend)
		persistMgr = persistence.NewManager(v, backend, logger)
		if err := persistMgr.Load(context.Background()); err != nil {
			logger.Warn("failed to load persisted session", "error", err)
		}
		v.Watch("", func(vfs.Event) { persistMgr.ScheduleSave() })
	}

	env := exec.DefaultEnv()
	registry := exec.NewRegistry()
	jobs := procfs.NewJobTable(procs)

	executor := exec.New(v, registry, procs, jobs, env, logger)
	executor.Stdout = exec.NewWriter(os.Stdout)
	executor.Stderr = exec.NewWriter(os.Stderr)
	executor.Stdin = exec.NewReader(os.Stdin)
	registerSampleCommands(registry)

	if err := v.Mkdir(env.Exported()["HOME"], vfs.MkdirOptions{Recursive: true}); err != nil {
		logger.Debug("home directory already present", "error", err)
	}

	return &kernel{vfs: v, procs: procs, jobs: jobs, persistMgr: persistMgr, executor: executor}, nil
}

func (k *kernel) shutdown() {
	if k.persistMgr != nil {
		k.persistMgr.Flush()
	}
	_ = k.vfs.Close()
}
