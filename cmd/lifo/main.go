// Command lifo hosts an in-process Lifo kernel: a virtual filesystem,
// a POSIX-ish shell, and process/job control, all running inside this
// one OS process without a real kernel underneath. A single cobra
// RunE entry point wires stdio and either runs a script, runs one
// command, or starts an interactive shell loop over the VFS.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lifo-sh/lifo/internal/contentstore"
)

func main() {
	var (
		scriptFile  string
		storeBytes  int64
		mountHost   string
		mountPoint  string
		mountRO     bool
		persistPath string
		verbose     bool
	)

	rootCmd := &cobra.Command{
		Use:           "lifo",
		Short:         "Run an in-process Lifo shell over a virtual filesystem",
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			k, err := newKernel(kernelOptions{
				storeBytes:  storeBytes,
				mountHost:   mountHost,
				mountPoint:  mountPoint,
				mountRO:     mountRO,
				persistPath: persistPath,
				logger:      logger,
			})
			if err != nil {
				return err
			}
			defer k.shutdown()

			ctx, cancel := newCancellableContext()
			defer cancel()

			if scriptFile != "" {
				data, err := os.ReadFile(scriptFile)
				if err != nil {
					return fmt.Errorf("lifo: %w", err)
				}
				code := k.executor.Run(string(data))
				if code != 0 {
					cmd.SilenceUsage = true
					return fmt.Errorf("script exited with status %d", code)
				}
				return nil
			}

			if len(args) > 0 {
				code := k.executor.Run(args[0])
				if code != 0 {
					cmd.SilenceUsage = true
					return fmt.Errorf("command exited with status %d", code)
				}
				return nil
			}

			runREPL(ctx, k)
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&scriptFile, "file", "f", "", "run a script file instead of starting an interactive shell")
	rootCmd.Flags().Int64Var(&storeBytes, "store-bytes", contentstore.DefaultMaxBytes, "content store LRU byte budget")
	rootCmd.Flags().StringVar(&mountHost, "mount-host", "", "host directory to mount read-write at --mount-point")
	rootCmd.Flags().StringVar(&mountPoint, "mount-point", "/mnt", "VFS path the host directory is mounted at")
	rootCmd.Flags().BoolVar(&mountRO, "mount-readonly", false, "mount the host directory read-only")
	rootCmd.Flags().StringVar(&persistPath, "persist", "", "path to a directory backing durable session persistence (empty disables it)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lifo: %v\n", err)
		os.Exit(1)
	}
}

func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

// runREPL drives an interactive read-eval-print loop over stdin,
// printing a prompt that reflects the shell's current directory.
func runREPL(ctx context.Context, k *kernel) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fmt.Fprintf(os.Stdout, "%s $ ", k.executor.Cwd)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && err != io.EOF {
				fmt.Fprintf(os.Stderr, "lifo: %v\n", err)
			}
			fmt.Fprintln(os.Stdout)
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		k.executor.Run(line)
	}
}
