package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/logging"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/mikey/phishguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the server
func BuildContainer() (*dig.Container, error) {
	return buildServerContainer(config.New)
}

// BuildContainerFromFile is BuildContainer with an explicit config file
func BuildContainerFromFile(path string) (*dig.Container, error) {
	return buildServerContainer(func() (*config.Config, error) {
		return config.Load(path)
	})
}

func buildServerContainer(loadConfig func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(loadConfig); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register cache
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (factory.VerdictCache, error) {
		return f.CreateVerdictCache()
	}); err != nil {
		return nil, err
	}

	// Register controller options
	if err := container.Provide(func(cfg *config.Config) (core.ControllerOptions, error) {
		return cfg.GetControllerOptions()
	}); err != nil {
		return nil, err
	}

	// Register submission controller
	if err := container.Provide(newController); err != nil {
		return nil, err
	}

	// Register frontends
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FrontendFactory) ([]ports.Frontend, error) {
		return f.CreateFrontends()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers what the server and the CLI share: text processing,
// the classifier, the session and its history
func provideCore(container *dig.Container) error {
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) core.Session {
		return cfg.GetSession()
	}); err != nil {
		return err
	}
	return container.Provide(core.NewResultHistory)
}

func newController(
	classifier core.Classifier,
	history *core.ResultHistory,
	verdictCache factory.VerdictCache,
	logger *zap.Logger,
	session core.Session,
	opts core.ControllerOptions,
) (*core.SubmissionController, error) {
	var c core.VerdictCache
	if verdictCache != nil {
		c = verdictCache
	}
	return core.NewSubmissionController(classifier, history, c, logger, session, opts)
}
