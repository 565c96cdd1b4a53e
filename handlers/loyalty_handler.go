package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/services"
)

type LoyaltyHandler struct {
	loyalty      *services.LoyaltyService
	verification *services.VerificationService
}

func NewLoyaltyHandler(loyalty *services.LoyaltyService, verification *services.VerificationService) *LoyaltyHandler {
	return &LoyaltyHandler{loyalty: loyalty, verification: verification}
}

// CheckLoyaltyStatus is the customer view. Ownership of the phone is shown with a code from
// /verification/send, which is consumed.
func (h *LoyaltyHandler) CheckLoyaltyStatus(c *fiber.Ctx) error {
	var req VerifyCodeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.verification.Verify(c.UserContext(), req.Phone, req.Code); err != nil {
		return respondError(c, err)
	}
	status, err := h.loyalty.Status(c.UserContext(), req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (h *LoyaltyHandler) GetLoyaltyStatus(c *fiber.Ctx) error {
	status, err := h.loyalty.Status(c.UserContext(), c.Query("phone"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}
