package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	logFile, err := initLogger()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	defer logFile.Close()

	log.Info().Str("version", Version).Msg("Garden Auto-Buyer")

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		return 1
	}
	return 0
}
