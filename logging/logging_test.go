package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhilcoder7733/hotelgram/apperr"
	"github.com/akhilcoder7733/hotelgram/config"
)

func TestRequestsLogsTheAnsweredStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler})
	app.Use(Requests(logger))
	app.Get("/ok", func(c fiber.Ctx) error { return c.SendStatus(http.StatusCreated) })
	app.Get("/missing", func(c fiber.Ctx) error { return &apperr.NotFoundError{Kind: "hotel", ID: "h9"} })

	tests := []struct {
		path   string
		status int
		level  logrus.Level
	}{
		{"/ok", http.StatusCreated, logrus.DebugLevel},
		{"/missing", http.StatusNotFound, logrus.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			hook.Reset()
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.status, entry.Data["status"])
			assert.Equal(t, tt.path, entry.Data["path"])
			assert.Equal(t, tt.level, entry.Level)
		})
	}
}

func TestNewParsesLevelAndFormat(t *testing.T) {
	logger, closer := New(config.LoggingConfig{Level: "warn", Format: "json", Output: "discard"})
	defer closer.Close()

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, _ = New(config.LoggingConfig{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
