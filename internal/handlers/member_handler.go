// Package handlers contains the fiber HTTP handlers for the engine's
// service API.
package handlers

import (
	"errors"
	"strconv"

	"vidanet/internal/repositories"
	"vidanet/internal/services/summary"
	"vidanet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler serves the dashboard read endpoints.
type MemberHandler struct {
	summaries summary.Service
}

func NewMemberHandler(summaries summary.Service) *MemberHandler {
	return &MemberHandler{summaries: summaries}
}

// GetSummary handles GET /api/members/:id/summary?period_id=
func (h *MemberHandler) GetSummary(c *fiber.Ctx) error {
	memberID, err := parseID(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "invalid member id")
	}
	periodID, err := parseOptionalPeriod(c.Query("period_id"))
	if err != nil {
		return response.BadRequest(c, "invalid period id")
	}

	out, err := h.summaries.GetMemberSummary(c.Context(), memberID, periodID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMemberNotFound):
			return response.NotFound(c, "member not found")
		case errors.Is(err, summary.ErrNoClosedPeriod):
			return response.NotFound(c, "no closed period available")
		case errors.Is(err, summary.ErrPeriodNotClosed):
			return response.Conflict(c, "period is not closed yet")
		case errors.Is(err, repositories.ErrPeriodNotFound):
			return response.NotFound(c, "period not found")
		default:
			return response.ServerError(c, "failed to load member summary")
		}
	}
	return response.Success(c, "member summary", out)
}

// GetCommissions handles GET /api/members/:id/commissions?period_id=
func (h *MemberHandler) GetCommissions(c *fiber.Ctx) error {
	memberID, err := parseID(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "invalid member id")
	}
	periodID, err := parseOptionalPeriod(c.Query("period_id"))
	if err != nil {
		return response.BadRequest(c, "invalid period id")
	}

	rows, err := h.summaries.GetCommissions(c.Context(), memberID, periodID)
	if err != nil {
		switch {
		case errors.Is(err, summary.ErrNoClosedPeriod):
			return response.NotFound(c, "no closed period available")
		case errors.Is(err, summary.ErrPeriodNotClosed):
			return response.Conflict(c, "period is not closed yet")
		case errors.Is(err, repositories.ErrPeriodNotFound):
			return response.NotFound(c, "period not found")
		default:
			return response.ServerError(c, "failed to load commissions")
		}
	}
	return response.Success(c, "member commissions", rows)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parseOptionalPeriod(raw string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
