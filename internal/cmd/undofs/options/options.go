// Package options implements the Options/AddFlags/Complete split the
// teacher's CLI layer uses, adapted from a Kubernetes REST-config/logger
// bootstrap to a backing-root/mountpoint/logger bootstrap.
package options

import (
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/undofs/undofs/internal/config"
	"github.com/undofs/undofs/internal/diagnostics"
)

// Options are the main options for the mount command. Populated via
// processing command line flags, then resolved into FS and Logr by
// Complete.
type Options struct {
	// MetricsAddress is the TCP address for exposing HTTP Prometheus
	// metrics on the HTTP path '/metrics'. The value "0" disables it.
	MetricsAddress string

	// ReadyzAddress is the TCP address for exposing the HTTP readiness
	// probe on the HTTP path '/readyz'.
	ReadyzAddress string

	// LogLevel is the logr/klog-style verbosity (0 is default).
	LogLevel int

	allowOther bool
	readOnly   bool

	// Logr is the shared base logger, built in Complete.
	Logr logr.Logger
	// closeLogr releases the diagnostic log file; call on shutdown.
	closeLogr func() error

	// FS is the resolved, immutable config threaded through the
	// dispatcher, built in Complete.
	FS config.Config
}

func New() *Options {
	return new(Options)
}

// Complete resolves the positional <backing-root> <mountpoint> arguments
// and builds the logger and dispatcher config. It must be called after
// flag parsing.
func (o *Options) Complete(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected exactly two positional arguments: <backing-root> <mountpoint>, got %d", len(args))
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving backing root: %w", err)
	}
	mountPoint, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("resolving mountpoint: %w", err)
	}

	o.FS = config.Config{
		BackingRoot: root,
		MountPoint:  mountPoint,
		AllowOther:  o.allowOther,
		ReadOnly:    o.readOnly,
	}

	logger, closeLogr, err := diagnostics.NewLogger(o.FS.LogPath(), o.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	o.Logr = logger
	o.closeLogr = closeLogr

	return nil
}

// Close releases resources Complete opened, such as the diagnostic log
// file.
func (o *Options) Close() error {
	if o.closeLogr == nil {
		return nil
	}
	return o.closeLogr()
}

func (o *Options) AddFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	o.addAppFlags(fs)
}

func (o *Options) addAppFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.MetricsAddress, "metrics-bind-address", ":9402",
		`TCP address for exposing HTTP Prometheus metrics which will be served on the HTTP path '/metrics'. The value "0" will
	 disable exposing metrics.`)

	fs.StringVar(&o.ReadyzAddress, "readiness-probe-bind-address", ":6060",
		"TCP address for exposing the HTTP readiness probe which will be served on the HTTP path '/readyz'.")

	fs.IntVar(&o.LogLevel, "log-level", 0, "Log verbosity level (1-5).")

	fs.BoolVar(&o.allowOther, "allow-other", false,
		"Allow access to the mount from users other than the one who mounted it.")

	fs.BoolVar(&o.readOnly, "read-only", false,
		"Reject every mutating filesystem operation.")
}
