package factory

import (
	"fmt"

	"github.com/mikey/phishguard/internal/adapters/frontend"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

// FrontendFactory creates the server frontends based on configuration
type FrontendFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	controller *core.SubmissionController
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, controller *core.SubmissionController) *FrontendFactory {
	return &FrontendFactory{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
	}
}

// CreateFrontends creates every enabled frontend. At least one must be enabled.
func (f *FrontendFactory) CreateFrontends() ([]ports.Frontend, error) {
	var frontends []ports.Frontend

	if httpCfg := f.cfg.GetHTTPServer(); httpCfg.Enabled {
		frontends = append(frontends,
			frontend.NewHTTPFrontend(f.controller, f.logger.With(zap.String("frontend", "http")), httpCfg))
	}
	if smtpCfg := f.cfg.GetSMTPServer(); smtpCfg.Enabled {
		frontends = append(frontends,
			frontend.NewSMTPFrontend(f.controller, f.logger.With(zap.String("frontend", "smtp")), smtpCfg))
	}

	if len(frontends) == 0 {
		return nil, fmt.Errorf("no frontend enabled: set server.http.enabled or server.smtp.enabled")
	}
	return frontends, nil
}
