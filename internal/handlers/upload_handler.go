package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"abcretail/internal/models"
	"abcretail/internal/services"
)

// UploadHandler handles the proof-of-payment upload routes.
type UploadHandler struct {
	service *services.UploadService
	timeout time.Duration
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(service *services.UploadService, timeout time.Duration) *UploadHandler {
	return &UploadHandler{
		service: service,
		timeout: timeout,
	}
}

// RegisterRoutes registers the upload routes with the Fiber app.
func (h *UploadHandler) RegisterRoutes(router fiber.Router) {
	uploadRoutes := router.Group("/upload")
	uploadRoutes.Get("/", h.HandleForm)
	uploadRoutes.Post("/", h.HandleUpload)
}

// HandleForm returns an empty upload form.
func (h *UploadHandler) HandleForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"upload": &models.FileUpload{},
	})
}

// HandleUpload runs the dual write. Success answers 200 with a reset form so
// the page can be reused immediately; failures answer 200 with field or
// global messages.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	var file *models.FileUpload
	if fileHeader, err := c.FormFile("ProofOfPayment"); err == nil && fileHeader != nil {
		upload, readErr := readUpload(fileHeader)
		if readErr != nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"upload": &models.FileUpload{},
				"errors": fiber.Map{"ProofOfPayment": "could not read uploaded file"},
			})
		}
		file = upload
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	result, err := h.service.UploadProof(ctx, file)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"upload": &models.FileUpload{},
				"errors": fiber.Map{vErr.Field: vErr.Message},
			})
		}
		log.Printf("Error uploading proof of payment: %v", err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"upload": &models.FileUpload{},
			"error":  fmt.Sprintf("Error uploading file: %v", err),
		})
	}

	// Fresh form for reuse, no redirect.
	return c.JSON(fiber.Map{
		"upload":  &models.FileUpload{},
		"result":  result,
		"success": fmt.Sprintf("File uploaded successfully! File name: %s", result.FileName),
	})
}
