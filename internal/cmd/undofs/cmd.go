// Package undofs wires together the options, dispatcher, metrics,
// readiness probe and mount lifecycle behind the cobra command.
package undofs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/undofs/undofs/internal/cmd/undofs/options"
	"github.com/undofs/undofs/internal/fsops"
	"github.com/undofs/undofs/internal/metrics"
	"github.com/undofs/undofs/internal/mount"
	"github.com/undofs/undofs/internal/version"
)

const helpOutput = "A userspace versioning overlay filesystem."

// NewCommand returns a new instance of the undofs command.
func NewCommand() *cobra.Command {
	opts := options.New()

	cmd := &cobra.Command{
		Use:     "undofs [flags] <backing-root> <mountpoint>",
		Short:   helpOutput,
		Version: version.VersionInfo().AppVersion,
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Complete(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := opts.Logr.WithName("main")
			defer func() {
				if err := opts.Close(); err != nil {
					log.Error(err, "failed to close diagnostic log")
				}
			}()

			log.Info("starting", "version", version.VersionInfo())

			registry := prometheus.NewRegistry()
			recorder := metrics.NewRecorder(registry)

			serveHTTP(ctx, opts.MetricsAddress, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), log.WithName("metrics"))

			ready := make(chan struct{})
			serveHTTP(ctx, opts.ReadyzAddress, readyzHandler(ready), log.WithName("readyz"))

			dispatcher := fsops.NewDispatcher(opts.FS, log.WithName("dispatcher"), recorder)
			m, err := mount.New(opts.FS, dispatcher)
			if err != nil {
				return fmt.Errorf("unable to mount: %w", err)
			}
			close(ready)

			log.Info("mounted", "backingRoot", opts.FS.BackingRoot, "mountPoint", opts.FS.MountPoint)
			return m.WaitAndServe(ctx)
		},
	}

	opts.AddFlags(cmd)

	return cmd
}

func readyzHandler(ready <-chan struct{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ready:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
}

// serveHTTP starts an HTTP server bound to addr serving handler at its
// root, in a background goroutine. addr of "" or "0" disables it.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, log logr.Logger) {
	if addr == "" || addr == "0" {
		return
	}

	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "http server exited")
		}
	}()
}
