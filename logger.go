package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFileName = "autobuyer.log"

// initLogger wires the global logger to the console and a log file.
// The console gets the human-readable writer; the file keeps raw JSON
// lines for later digging. Caller closes the returned file.
func initLogger() (*os.File, error) {
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, logFile)).
		With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	return logFile, nil
}
