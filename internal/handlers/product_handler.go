package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"abcretail/internal/models"
	"abcretail/internal/services"
	"abcretail/internal/storage"
)

// ProductHandler handles the catalog routes.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	timeout  time.Duration
}

// NewProductHandler creates a new ProductHandler. Every storage call made on
// behalf of a request runs under the given timeout.
func NewProductHandler(service *services.ProductService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
		timeout:  timeout,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/product")
	productRoutes.Get("/", h.HandleIndex)
	productRoutes.Get("/create", h.HandleCreateForm)
	productRoutes.Post("/create", h.HandleCreate)
	productRoutes.Get("/edit/:id", h.HandleEditForm)
	productRoutes.Post("/edit", h.HandleEdit)
	productRoutes.Post("/delete", h.HandleDelete)
}

func (h *ProductHandler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// HandleIndex lists all products together with any pending flash messages.
func (h *ProductHandler) HandleIndex(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	products, err := h.service.List(ctx)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"products": products,
		"success":  takeFlash(c, flashSuccessCookie),
		"error":    takeFlash(c, flashErrorCookie),
	})
}

// HandleCreateForm returns an empty product form.
func (h *ProductHandler) HandleCreateForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"product": models.NewProduct(),
	})
}

// HandleCreate creates a product from a multipart form. Success redirects to
// the list; any failure re-renders the form payload with messages.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	in, fieldErrors := h.decodeForm(c)
	if len(fieldErrors) > 0 {
		return h.renderForm(c, in, fieldErrors, "")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	product, err := h.service.Create(ctx, in)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			return h.renderForm(c, in, map[string]string{vErr.Field: vErr.Message}, "")
		}
		log.Printf("Error creating product: %v", err)
		return h.renderForm(c, in, nil, fmt.Sprintf("Error creating product: %v", err))
	}

	setFlash(c, flashSuccessCookie, fmt.Sprintf("Product '%s' created successfully with price %s!", product.Name, product.Price.StringFixed(2)))
	return c.Redirect("/product", fiber.StatusFound)
}

// HandleEditForm fetches a product for editing, or 404 when it is missing.
func (h *ProductHandler) HandleEditForm(c *fiber.Ctx) error {
	rowKey := c.Params("id")
	if rowKey == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	product, err := h.service.Get(ctx, rowKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		log.Printf("Error fetching product %s: %v", rowKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"product": product,
	})
}

// HandleEdit updates a product. The original is missing -> 404; a stale
// concurrency token -> generic form error; success -> redirect to the list.
func (h *ProductHandler) HandleEdit(c *fiber.Ctx) error {
	in, fieldErrors := h.decodeForm(c)
	in.RowKey = strings.TrimSpace(c.FormValue("RowKey"))
	if in.RowKey == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if len(fieldErrors) > 0 {
		return h.renderForm(c, in, fieldErrors, "")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	product, err := h.service.Update(ctx, in)
	if err != nil {
		var vErr *services.ValidationError
		switch {
		case errors.As(err, &vErr):
			return h.renderForm(c, in, map[string]string{vErr.Field: vErr.Message}, "")
		case errors.Is(err, storage.ErrNotFound):
			return c.SendStatus(fiber.StatusNotFound)
		case errors.Is(err, storage.ErrConcurrency):
			return h.renderForm(c, in, nil, "The product was changed by someone else. Reload it and try again.")
		default:
			log.Printf("Error updating product %s: %v", in.RowKey, err)
			return h.renderForm(c, in, nil, fmt.Sprintf("Error updating product: %v", err))
		}
	}

	setFlash(c, flashSuccessCookie, fmt.Sprintf("Product '%s' updated successfully", product.Name))
	return c.Redirect("/product", fiber.StatusFound)
}

// HandleDelete deletes a product best-effort: failures become a flash
// message and the redirect to the list always happens.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	rowKey := strings.TrimSpace(c.FormValue("id"))

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Delete(ctx, rowKey); err != nil {
		log.Printf("Error deleting product %s: %v", rowKey, err)
		setFlash(c, flashErrorCookie, fmt.Sprintf("Error deleting product: %v", err))
	} else {
		setFlash(c, flashSuccessCookie, "Product deleted successfully")
	}
	return c.Redirect("/product", fiber.StatusFound)
}

// decodeForm reads the multipart product form into a ProductInput. The raw
// price string travels along untouched; the workflow parses it itself.
func (h *ProductHandler) decodeForm(c *fiber.Ctx) (services.ProductInput, map[string]string) {
	fieldErrors := make(map[string]string)

	in := services.ProductInput{
		Name:        strings.TrimSpace(c.FormValue("Name")),
		Description: strings.TrimSpace(c.FormValue("Description")),
		RawPrice:    c.FormValue("Price"),
	}

	rawStock := strings.TrimSpace(c.FormValue("StockAvailable"))
	if rawStock != "" {
		stock, err := strconv.Atoi(rawStock)
		if err != nil {
			fieldErrors["StockAvailable"] = fmt.Sprintf("invalid stock %q", rawStock)
		} else {
			in.Stock = stock
		}
	}

	if fileHeader, err := c.FormFile("ImageFile"); err == nil && fileHeader != nil && fileHeader.Size > 0 {
		upload, readErr := readUpload(fileHeader)
		if readErr != nil {
			fieldErrors["ImageFile"] = "could not read uploaded image"
		} else {
			in.Image = upload
		}
	}

	if err := h.validate.Struct(in); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				fieldErrors[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
	}

	if len(fieldErrors) == 0 {
		return in, nil
	}
	return in, fieldErrors
}

// renderForm re-renders the form payload with field and/or global errors,
// always as a 200 so the client stays on the form.
func (h *ProductHandler) renderForm(c *fiber.Ctx, in services.ProductInput, fieldErrors map[string]string, globalError string) error {
	body := fiber.Map{
		"product": fiber.Map{
			"row_key":     in.RowKey,
			"name":        in.Name,
			"description": in.Description,
			"price":       in.RawPrice,
			"stock":       in.Stock,
		},
	}
	if len(fieldErrors) > 0 {
		body["errors"] = fieldErrors
	}
	if globalError != "" {
		body["error"] = globalError
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// readUpload copies a multipart file into a transient FileUpload.
func readUpload(fileHeader *multipart.FileHeader) (*models.FileUpload, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &models.FileUpload{
		FileName: fileHeader.Filename,
		Content:  content,
	}, nil
}
