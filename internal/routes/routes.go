// Package routes defines the API routing configuration.
package routes

import (
	"vidanet/internal/handlers"
	"vidanet/internal/middleware"
	"vidanet/internal/models"
	"vidanet/internal/repositories"
	"vidanet/internal/services/rollover"
	"vidanet/internal/services/summary"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes. The rollover controller
// is built by the caller so the scheduler and the admin endpoint share
// the same lease path.
func SetupRoutes(app *fiber.App, db *gorm.DB, controller *rollover.Controller) {
	memberRepo := repositories.NewMemberRepository(db)
	periodRepo := repositories.NewPeriodRepository(db)
	rankRepo := repositories.NewRankRepository(db)
	historyRepo := repositories.NewRankHistoryRepository(db)
	commissionRepo := repositories.NewCommissionRepository(db)

	summaryService := summary.NewService(
		memberRepo,
		periodRepo,
		rankRepo,
		historyRepo,
		commissionRepo,
		repositories.CacheService,
		summary.Config{},
	)

	memberHandler := handlers.NewMemberHandler(summaryService)
	adminHandler := handlers.NewAdminHandler(controller)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "VidaNet compensation engine",
			"docs":    "/api",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", middleware.ServiceAuth)

	members := api.Group("/members", middleware.RequireRole(models.RoleDashboard))
	members.Get("/:id/summary", memberHandler.GetSummary)
	members.Get("/:id/commissions", memberHandler.GetCommissions)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Post("/rollover/run", adminHandler.RunRollover)
}
