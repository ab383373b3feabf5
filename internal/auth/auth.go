// Package auth resolves the externally-authenticated identity. Token
// issuance and verification live in the identity provider; this layer
// trusts the forwarded user id and only validates that the user exists.
package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	user "github.com/mnuddindev/threadly/internal/models/user"
	"github.com/mnuddindev/threadly/pkg/logger"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
)

// IdentityHeader carries the user id forwarded by the identity provider.
const IdentityHeader = "X-User-ID"

type Options struct {
	DB      *gorm.DB
	Rclient *storage.RedisClient
	Logger  *logger.Logger
}

// RequireIdentity rejects requests without a resolvable user identity and
// stores the user id in locals and request context.
func RequireIdentity(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(IdentityHeader)
		if raw == "" {
			return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Missing identity"))
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			opt.Logger.Warn(c.Context()).WithMeta(utils.Map{"user_id": raw}).Logs("Malformed identity header")
			return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Malformed identity"))
		}

		u, err := user.GetUserByID(c.UserContext(), opt.Rclient, opt.DB, id)
		if err != nil {
			if utils.IsCode(err, utils.ErrNotFound.Code) {
				return utils.HandleError(c, utils.NewError(utils.ErrUnauthorized.Code, "Unknown user"))
			}
			return utils.HandleError(c, err)
		}

		setIdentity(c, u)
		return c.Next()
	}
}

// OptionalIdentity resolves the identity when present but lets anonymous
// requests through; feed reads work without a viewer.
func OptionalIdentity(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(IdentityHeader)
		if raw == "" {
			return c.Next()
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Next()
		}

		if u, err := user.GetUserByID(c.UserContext(), opt.Rclient, opt.DB, id); err == nil {
			setIdentity(c, u)
		}
		return c.Next()
	}
}

// CurrentUserID returns the resolved identity, uuid.Nil when anonymous.
func CurrentUserID(c *fiber.Ctx) uuid.UUID {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func setIdentity(c *fiber.Ctx, u *user.User) {
	c.Locals("user_id", u.ID.String())
	c.Locals("current_user", u)
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	c.SetUserContext(context.WithValue(ctx, "user_id", u.ID.String()))
}
