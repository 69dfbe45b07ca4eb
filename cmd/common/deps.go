// Package common provides shared dependency construction for commands.
package common

import (
	"fmt"

	"github.com/rankwell/siteaudit/internal/config"
	"github.com/rankwell/siteaudit/internal/logger"
)

// Deps holds the dependencies every command starts from.
type Deps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewCommandDeps loads configuration and builds the logger.
func NewCommandDeps(cfgFile string) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}
