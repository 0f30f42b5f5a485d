package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/phishguard/internal/adapters/frontend"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Invalid arguments: %v\n", err)
		os.Exit(2)
	}

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// The first signal cancels the running submission, a second one exits
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	err = container.Invoke(func(logger *zap.Logger, session *frontend.CLISession, classifier core.Classifier) error {
		defer logger.Sync()
		defer closeClassifier(logger, classifier)

		if !flags.OneShot() {
			return session.Run(ctx, os.Stdin, os.Stdout)
		}

		kind, payload, err := oneShotInput(flags)
		if err != nil {
			return err
		}
		_, err = session.SubmitOnce(ctx, kind, payload, os.Stdout)
		return err
	})
	if err != nil {
		if !flags.OneShot() && errors.Is(err, context.Canceled) {
			return
		}
		// submission failures were already reported by the session
		if !reported(err) {
			fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		}
		os.Exit(1)
	}
}

func reported(err error) bool {
	return core.IsValidationError(err) || core.IsClassifierError(err) || errors.Is(err, core.ErrSlotBusy)
}

// oneShotInput resolves the single submission requested on the command line
func oneShotInput(flags *di.CLIFlags) (core.AnalysisKind, string, error) {
	switch {
	case flags.URL != "":
		return core.KindURL, flags.URL, nil
	case flags.EmailText != "":
		return core.KindEmail, flags.EmailText, nil
	}

	var r io.Reader = os.Stdin
	if flags.InputFile != "-" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return "", "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("failed to read email: %w", err)
	}
	return core.KindEmail, frontend.EmailText(data), nil
}

func closeClassifier(logger *zap.Logger, classifier core.Classifier) {
	if closer, ok := classifier.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}
}
