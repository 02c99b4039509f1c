package main

import (
	"context"
	"os"

	"throttle-fusion-core/config"
	"throttle-fusion-core/utils"
)

// watchLogLevel reloads cfgPath on every signal received from hup and
// applies its log level until ctx is done. A config that fails to load
// leaves the current level in place.
func watchLogLevel(ctx context.Context, hup <-chan os.Signal, cfgPath string, log *utils.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(cfgPath)
			if err != nil {
				log.Error("Reload %s failed: %v", cfgPath, err)
				continue
			}
			level := utils.ParseLevel(cfg.Log.Level)
			log.Warn("Log level set to %s", level)
			log.SetMinLevel(level)
		}
	}
}
