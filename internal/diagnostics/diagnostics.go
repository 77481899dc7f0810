// Package diagnostics builds the process-wide append-only log sink: a
// zap-backed logr.Logger writing to both stderr and the backing root's
// log.txt.
package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	crzap "sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// NewLogger opens logPath for append and returns a logger writing to it
// and to stderr, along with a closer to call on shutdown. verbosity
// follows the conventional logr/klog scale: 0 is default, higher values
// are more verbose.
func NewLogger(logPath string, verbosity int) (logr.Logger, func() error, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return logr.Logger{}, nil, fmt.Errorf("open diagnostic log %s: %w", logPath, err)
	}

	w := io.MultiWriter(os.Stderr, logFile)
	logger := crzap.New(
		crzap.UseDevMode(true),
		crzap.WriteTo(w),
		crzap.Level(zapcore.Level(-verbosity)),
	)

	return logger, logFile.Close, nil
}
