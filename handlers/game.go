package handlers

import (
	"strconv"
	"time"

	"youth-sports-gamification/middleware"
	"youth-sports-gamification/models"
	"youth-sports-gamification/utils"

	"github.com/gofiber/fiber/v2"
)

type logGameRequest struct {
	Position string             `json:"position"`
	Opponent string             `json:"opponent"`
	PlayedAt *time.Time         `json:"played_at"`
	Stats    map[string]float64 `json:"stats"`
}

// SetupGameRoutes mounts game logging; every logged game runs the full
// gamification pipeline and returns its outcome.
func SetupGameRoutes(app fiber.Router, svc Services, throttle fiber.Handler) {
	secured := app.Group("/games", middleware.UserContextMiddleware(), throttle)

	secured.Post("", func(c *fiber.Ctx) error {
		var req logGameRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.BadRequest("invalid JSON")
		}
		for stat, v := range req.Stats {
			if v < 0 {
				return utils.BadRequest("stat " + stat + " must not be negative")
			}
		}
		game := &models.GameRecord{
			Position: req.Position,
			Opponent: req.Opponent,
			Stats:    req.Stats,
		}
		if req.PlayedAt != nil {
			game.PlayedAt = *req.PlayedAt
		}

		res, err := svc.Coordinator.RecordGame(c.UserContext(), middleware.UserID(c), game)
		if err != nil {
			return serviceError(c, err, "failed to log game")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if d > time.Duration(secs)*time.Second {
		secs++
	}
	return strconv.Itoa(secs)
}
