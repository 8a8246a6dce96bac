package main

import (
	"os"

	"github.com/damacus/iron-sync/internal/logger"
	"github.com/damacus/iron-sync/internal/services"
)

func main() {
	cli := &commandLine{newGateway: services.NewGateway, stderr: os.Stderr}
	if err := cli.app().Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("ironsync failed")
		os.Exit(1)
	}
}
