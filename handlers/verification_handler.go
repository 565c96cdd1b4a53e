package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/services"
)

type SendCodeRequest struct {
	Phone string `json:"phone" validate:"required,max=20"`
}

type VerifyCodeRequest struct {
	Phone string `json:"phone" validate:"required,max=20"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type VerificationHandler struct {
	verification *services.VerificationService
}

func NewVerificationHandler(verification *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

func (h *VerificationHandler) SendCode(c *fiber.Ctx) error {
	var req SendCodeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.verification.Send(c.UserContext(), req.Phone); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Verification code sent"})
}

// VerifyCode consumes the code. Reschedule takes its own fresh code.
func (h *VerificationHandler) VerifyCode(c *fiber.Ctx) error {
	var req VerifyCodeRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.verification.Verify(c.UserContext(), req.Phone, req.Code); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"verified": true})
}
