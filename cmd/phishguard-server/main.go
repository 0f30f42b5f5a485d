package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/di"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "", "Path to config file (default: search /etc/phishguard, $HOME/.phishguard, ./configs and .)")

func main() {
	flag.Parse()

	// Build the dependency injection container
	var container *dig.Container
	var err error
	if *configFile != "" {
		container, err = di.BuildContainerFromFile(*configFile)
	} else {
		container, err = di.BuildContainer()
	}
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	frontends []ports.Frontend,
	controller *core.SubmissionController,
	classifier core.Classifier,
	verdictCache factory.VerdictCache,
) error {
	defer logger.Sync()

	logger.Info("Starting phishguard",
		zap.String("user", controller.Session().UserEmail),
		zap.String("classifier", classifier.Name()),
		zap.Bool("cache", verdictCache != nil))

	// Start the frontends, unwinding the ones already running on failure
	for i, fe := range frontends {
		if err := fe.Start(); err != nil {
			logger.Error("Failed to start frontend", zap.String("frontend", fe.Name()), zap.Error(err))
			stopFrontends(logger, frontends[:i])
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	stopFrontends(logger, frontends)

	// Close any resources that need closing
	if closer, ok := classifier.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	if verdictCache != nil {
		verdictCache.Stop()
	}

	logger.Info("Shutdown complete", zap.Int("results", controller.History().Len()))
	return nil
}

func stopFrontends(logger *zap.Logger, frontends []ports.Frontend) {
	for i := len(frontends) - 1; i >= 0; i-- {
		if err := frontends[i].Stop(); err != nil {
			logger.Error("Failed to stop frontend", zap.String("frontend", frontends[i].Name()), zap.Error(err))
		}
	}
}
