package testpredictions

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/t20score/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends test output to stdout and a log file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "prediction_test_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	if err := logger.Init(logger.WithWriter(multiWriter)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the prediction test tool.
func ShowHelp() {
	os.Stdout.WriteString(`T20 Prediction Test Tool
========================

Fires random valid match states at a running predictor and checks every
answer for internal consistency.

Usage:
  go run ./cmd/test-predictions [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -requests int
        Number of match states to generate and submit (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for outcomes (default: prediction_outcomes_TIMESTAMP.json)
  -log string
        Log file for test output (default: prediction_test_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run ./cmd/test-predictions

  # Test a remote instance harder
  go run ./cmd/test-predictions -requests 20000 -workers 32 -url http://predictor:9080
`)
}
