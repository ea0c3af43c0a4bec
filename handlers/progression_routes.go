package handlers

import (
	"strings"
	"time"

	"youth-sports-gamification/middleware"
	"youth-sports-gamification/models"
	"youth-sports-gamification/services"
	"youth-sports-gamification/utils"

	"github.com/gofiber/fiber/v2"
)

// Services bundles what the routes call into.
type Services struct {
	Ledger      *services.XPLedger
	Streaks     *services.StreakCalculator
	Badges      *services.BadgeEngine
	Progress    *services.ProgressAggregator
	Coordinator *services.Coordinator
}

func SetupProgressionRoutes(app fiber.Router, svc Services, throttle fiber.Handler) {
	// 🔓 Catalog: gateway auth only
	app.Get("/badges", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"badges": svc.Badges.GetAvailableBadges(c.Query("position"))})
	})

	// 🔐 Secured routes require user context
	user := app.Group("/user", middleware.UserContextMiddleware(), throttle)

	user.Get("/progress", func(c *fiber.Ctx) error {
		view, err := svc.Ledger.Progress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err, "failed to load progress")
		}
		return c.JSON(view)
	})

	user.Post("/xp/award", func(c *fiber.Ctx) error {
		var req struct {
			ActionType string                 `json:"action_type"`
			Metadata   map[string]interface{} `json:"metadata"`
		}
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.ActionType) == "" {
			return utils.BadRequest("action_type is required")
		}
		res, err := svc.Ledger.Award(c.UserContext(), middleware.UserID(c), models.ActionType(req.ActionType), req.Metadata)
		if err != nil {
			return serviceError(c, err, "XP award failed")
		}
		if res.Reason.Throttled() {
			if res.RetryAfter > 0 {
				c.Set(fiber.HeaderRetryAfter, retryAfterSeconds(res.RetryAfter))
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(res)
		}
		return c.JSON(res)
	})

	user.Get("/streaks", func(c *fiber.Ctx) error {
		states, err := svc.Streaks.GetAllStreaks(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err, "failed to load streaks")
		}
		return c.JSON(fiber.Map{"streaks": states})
	})

	user.Get("/streaks/:activity", func(c *fiber.Ctx) error {
		state, err := svc.Streaks.GetStreak(c.UserContext(), middleware.UserID(c), c.Params("activity"))
		if err != nil {
			return serviceError(c, err, "failed to load streak")
		}
		return c.JSON(state)
	})

	user.Post("/activities", func(c *fiber.Ctx) error {
		var req struct {
			ActivityType    string  `json:"activity_type"`
			DurationMinutes float64 `json:"duration_minutes"`
		}
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.ActivityType) == "" {
			return utils.BadRequest("activity_type is required")
		}
		duration := time.Duration(req.DurationMinutes * float64(time.Minute))
		res := svc.Coordinator.OnSkillActivityLogged(c.UserContext(), middleware.UserID(c), req.ActivityType, duration)
		return c.JSON(res)
	})

	user.Get("/badges", func(c *fiber.Ctx) error {
		badges, err := svc.Badges.GetUserBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err, "failed to get badges")
		}
		return c.JSON(fiber.Map{"badges": badges})
	})

	user.Get("/badges/progress", func(c *fiber.Ctx) error {
		progress, err := svc.Badges.Progress(c.UserContext(), middleware.UserID(c), c.Query("position"))
		if err != nil {
			return serviceError(c, err, "failed to get badge progress")
		}
		return c.JSON(fiber.Map{"badges": progress})
	})

	user.Get("/goals/progress", func(c *fiber.Ctx) error {
		summary, err := svc.Progress.GetProgress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err, "failed to get goal progress")
		}
		return c.JSON(summary)
	})

	user.Get("/goals", func(c *fiber.Ctx) error {
		goals, err := svc.Progress.ListGoals(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return serviceError(c, err, "failed to list goals")
		}
		return c.JSON(fiber.Map{"goals": goals})
	})

	user.Post("/goals", func(c *fiber.Ctx) error {
		var req struct {
			StatType string  `json:"stat_type"`
			Target   float64 `json:"target"`
		}
		if err := c.BodyParser(&req); err != nil {
			return utils.BadRequest("invalid JSON")
		}
		goal, err := svc.Progress.CreateGoal(c.UserContext(), middleware.UserID(c), req.StatType, req.Target)
		if err != nil {
			return serviceError(c, err, "failed to create goal")
		}
		return c.Status(fiber.StatusCreated).JSON(goal)
	})

	// Admin endpoints
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID == "" {
			return utils.BadRequest("user_id and xp are required")
		}
		res, err := svc.Ledger.Grant(c.UserContext(), req.UserID, req.XP, req.Reason)
		if err != nil {
			return serviceError(c, err, "XP grant failed")
		}
		return c.JSON(fiber.Map{
			"message":  "XP granted successfully",
			"user_id":  req.UserID,
			"xp":       res.Amount,
			"total_xp": res.TotalXP,
			"level":    res.Level,
		})
	})
}
