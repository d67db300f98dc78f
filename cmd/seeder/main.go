package main

import (
	"context"
	"fmt"
	"os"

	"github.com/locvowork/feeltime/internal/bootstrap"
	"github.com/locvowork/feeltime/internal/config"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/logger"
)

func main() {
	cmd := NewRootCmd(openConfiguredStore)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "seeder: %v\n", err)
		os.Exit(1)
	}
}

// openConfiguredStore opens the backend the server would use for the same environment.
func openConfiguredStore(ctx context.Context) (domain.EmotionStore, error) {
	cfg, err := config.LoadEnvConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}
	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	return bootstrap.OpenStore(ctx, cfg)
}
