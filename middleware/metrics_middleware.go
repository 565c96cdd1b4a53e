package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/metrics"
)

// Metrics records every request by route pattern, so path parameters do not explode the label set.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		metrics.RecordHTTPRequest(
			c.Method(),
			c.Route().Path,
			strconv.Itoa(status),
			time.Since(start).Seconds(),
		)
		return err
	}
}
