package usecase

import (
	"context"
	"log/slog"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// InitConfigInput contains the input for the InitConfig use case.
type InitConfigInput struct {
	Global bool // If true, initialize global config; otherwise the data-directory config
}

// InitConfigOutput contains the output of the InitConfig use case.
type InitConfigOutput struct {
	Path string // Path to the created config file
}

// InitConfig generates a configuration file template.
type InitConfig struct {
	configManager domain.ConfigManager
	logger        *slog.Logger
}

// NewInitConfig creates a new InitConfig use case.
func NewInitConfig(configManager domain.ConfigManager, logger *slog.Logger) *InitConfig {
	return &InitConfig{
		configManager: configManager,
		logger:        orDiscard(logger),
	}
}

// Execute creates a configuration file with the default template.
func (uc *InitConfig) Execute(_ context.Context, in InitConfigInput) (*InitConfigOutput, error) {
	var err error
	var path string

	if in.Global {
		path = uc.configManager.GetGlobalConfigInfo().Path
		err = uc.configManager.InitGlobalConfig()
	} else {
		path = uc.configManager.GetLocalConfigInfo().Path
		err = uc.configManager.InitLocalConfig()
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Info("config file created", "path", path)
	return &InitConfigOutput{Path: path}, nil
}
