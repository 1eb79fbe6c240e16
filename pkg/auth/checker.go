package auth

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// HeaderFunc reads one request header by name.
type HeaderFunc func(name string) string

/*
Checker decides whether a request may pass.  Implementations only see
request headers, which keeps them usable from any HTTP stack.
*/
type Checker interface {
	Authorize(get HeaderFunc) bool
}

// APIKeyAuth matches a static "X-API-Key" header.
type APIKeyAuth struct{ Key string }

func (auth APIKeyAuth) Authorize(get HeaderFunc) bool {
	return get("X-API-Key") == auth.Key
}

// BearerAuth matches a static "Authorization: Bearer <token>" header.
type BearerAuth struct{ Token string }

func (auth BearerAuth) Authorize(get HeaderFunc) bool {
	header := get("Authorization")
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return false
	}

	return strings.TrimSpace(header[7:]) == auth.Token
}

/*
Middleware turns a Checker into fiber middleware returning 401 on
denied requests.  A nil checker lets everything through.
*/
func Middleware(checker Checker) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		if checker == nil {
			return ctx.Next()
		}

		get := func(name string) string { return ctx.Get(name) }
		if !checker.Authorize(get) {
			return ctx.SendStatus(fiber.StatusUnauthorized)
		}

		return ctx.Next()
	}
}
