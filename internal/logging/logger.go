package logging

import (
	"os"

	"github.com/superior-pamerca/admin-api/internal/config"

	"github.com/sirupsen/logrus"
)

// New creates a new structured logger
func New(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	}

	logger.SetOutput(os.Stdout)

	logger.AddHook(&serviceFieldsHook{fields: logrus.Fields{
		"service":     "admin-api",
		"version":     getVersion(),
		"environment": cfg.Server.Environment,
	}})

	return logger
}

// serviceFieldsHook stamps service metadata onto every entry. Fields
// set explicitly at the call site win.
type serviceFieldsHook struct {
	fields logrus.Fields
}

func (h *serviceFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceFieldsHook) Fire(entry *logrus.Entry) error {
	for key, value := range h.fields {
		if _, ok := entry.Data[key]; !ok {
			entry.Data[key] = value
		}
	}
	return nil
}

// getVersion returns the application version
func getVersion() string {
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}
	return "dev"
}

// WithUser adds the acting user to logger context
func WithUser(logger *logrus.Logger, email string) *logrus.Entry {
	return logger.WithField("user", email)
}

// WithRequest adds request context to logger
func WithRequest(logger *logrus.Logger, method, path string, statusCode int, latencyMs float64) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"http": map[string]interface{}{
			"method": method,
			"route":  path,
			"status": statusCode,
		},
		"latency_ms": latencyMs,
	})
}
