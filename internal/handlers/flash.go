package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

// One-shot flash messages carried across the post-redirect-get hop in
// cookies, read and cleared by the next page load.
const (
	flashSuccessCookie = "flash_success"
	flashErrorCookie   = "flash_error"
)

func setFlash(c *fiber.Ctx, name, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HTTPOnly: true,
	})
}

func takeFlash(c *fiber.Ctx, name string) string {
	value := c.Cookies(name)
	if value == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
	message, err := url.QueryUnescape(value)
	if err != nil {
		return ""
	}
	return message
}
