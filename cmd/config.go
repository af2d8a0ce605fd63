package main

import (
	"context"

	"github.com/desertthunder/spta/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes a default configuration file at the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("Created %s; set appleMusicUserToken to the Music-User-Token cookie from music.apple.com\n", r.configPath)
	return nil
}

// ConfigShow prints the effective configuration with the user token masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	masked := *config
	masked.AppleMusicUserToken = maskToken(config.AppleMusicUserToken)
	return r.writeJSON(masked, true)
}
