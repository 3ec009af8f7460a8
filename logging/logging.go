package logging

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	gormlogger "gorm.io/gorm/logger"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/config"
)

// New builds the service logger. Output "file" writes to a rotating log file.
func New(cfg config.LoggingConfig) (*logrus.Logger, io.Closer) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	switch cfg.Output {
	case "file":
		lumberjackLog := &lumberjack.Logger{
			Filename:  cfg.FilePath,
			MaxSize:   10,
			MaxAge:    14,
			LocalTime: true,
		}
		logger.SetOutput(lumberjackLog)
		closer = lumberjackLog
	case "discard":
		logger.SetOutput(io.Discard)
	default:
		logger.SetOutput(os.Stdout)
	}

	return logger, closer
}

// Discard is a logger for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Gorm routes gorm's statement log through logger.
func Gorm(logger *logrus.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}

	return gormlogger.New(logger.WithField("path", "storage"), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Requests logs one line per request. A failed request is logged with the
// status the error handler will answer with.
func Requests(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = apperr.Describe(err)
		}

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if err != nil {
			entry.WithError(err).Warn("request failed")
		} else {
			entry.Debug("request")
		}
		return err
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
