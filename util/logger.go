package util

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	appLogger   *logrus.Logger
	appLoggerMu sync.Mutex
)

// AppLogger returns the shared structured logger. Level and format come from
// LOG_LEVEL and LOG_FORMAT (text by default, "json" for ingestion pipelines).
func AppLogger() *logrus.Logger {
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()

	if appLogger != nil {
		return appLogger
	}

	l := logrus.New()
	l.SetOutput(os.Stdout)

	if os.Getenv("LOG_FORMAT") == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	appLogger = l
	return appLogger
}

// SetAppLoggerForTest swaps the shared logger, returning a restore function.
func SetAppLoggerForTest(l *logrus.Logger) func() {
	appLoggerMu.Lock()
	prev := appLogger
	appLogger = l
	appLoggerMu.Unlock()
	return func() {
		appLoggerMu.Lock()
		appLogger = prev
		appLoggerMu.Unlock()
	}
}
