package handlers

import (
	"errors"

	"vidanet/internal/services/rollover"
	"vidanet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	controller *rollover.Controller
}

func NewAdminHandler(controller *rollover.Controller) *AdminHandler {
	return &AdminHandler{controller: controller}
}

// RunRollover handles POST /api/admin/rollover/run. Finishes a period
// stuck in closing, or else closes the current open period, through the
// same lease path as the scheduler.
func (h *AdminHandler) RunRollover(c *fiber.Ctx) error {
	period, err := h.controller.RunManual(c.Context())
	if err != nil {
		switch {
		case errors.Is(err, rollover.ErrNoPeriodDue):
			return response.NotFound(c, "no open period to close")
		case errors.Is(err, rollover.ErrLeaseHeld):
			return response.Conflict(c, "rollover already running")
		default:
			return response.ServerError(c, "rollover failed: "+err.Error())
		}
	}
	return response.Success(c, "rollover completed", fiber.Map{
		"period_id":   period.ID,
		"period_name": period.Name,
	})
}
