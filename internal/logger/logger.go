package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// New builds the process logger and installs it as zap's global.
// APP_ENV=development switches to the human-readable console encoder.
func New() (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if os.Getenv("APP_ENV") == "development" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return log, nil
}
