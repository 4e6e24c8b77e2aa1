package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auth"
)

// maxLoggedBody caps how much of a request or response body ends up in
// the error log.
const maxLoggedBody = 500

type ErrorLoggerMiddleware struct {
	logger *logrus.Logger
}

func NewErrorLoggerMiddleware(logger *logrus.Logger) *ErrorLoggerMiddleware {
	return &ErrorLoggerMiddleware{
		logger: logger,
	}
}

// Handle logs 4xx and 5xx responses with detailed context
func (e *ErrorLoggerMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()

		err := c.Next()

		statusCode := c.Response().StatusCode()
		if statusCode < 400 {
			return err
		}

		logFields := logrus.Fields{
			"status_code":   statusCode,
			"method":        c.Method(),
			"path":          c.Path(),
			"ip":            c.IP(),
			"user_agent":    c.Get("User-Agent"),
			"request_id":    c.GetRespHeader(fiber.HeaderXRequestID),
			"duration_ms":   time.Since(startTime).Milliseconds(),
			"response_size": len(c.Response().Body()),
		}

		if user := auth.UserFromContext(c); user != nil {
			logFields["user_id"] = user.ID
		}

		if query := c.Request().URI().QueryString(); len(query) > 0 {
			logFields["query"] = string(query)
		}

		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			if body := truncate(string(c.Body())); body != "" {
				logFields["request_body"] = body
			}
		}

		if body := truncate(string(c.Response().Body())); body != "" {
			logFields["response_body"] = body
		}

		logEntry := e.logger.WithFields(logFields)
		if statusCode >= 500 {
			if err != nil {
				logEntry = logEntry.WithError(err)
			}
			logEntry.Error("Server error response")
		} else {
			logEntry.Warn("Client error response")
		}

		return err
	}
}

func truncate(body string) string {
	if len(body) > maxLoggedBody {
		return body[:maxLoggedBody] + "...(truncated)"
	}
	return body
}
