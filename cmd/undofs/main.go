package main

import (
	"os"

	undofs "github.com/undofs/undofs/internal/cmd/undofs"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"
)

func main() {
	if err := undofs.NewCommand().ExecuteContext(signals.SetupSignalHandler()); err != nil {
		os.Exit(1)
	}
}
