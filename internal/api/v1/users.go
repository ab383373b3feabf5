package v1

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mnuddindev/threadly/internal/auth"
	"github.com/mnuddindev/threadly/internal/models"
	threads "github.com/mnuddindev/threadly/internal/models/threads"
	"github.com/mnuddindev/threadly/pkg/paginator"
	"github.com/mnuddindev/threadly/pkg/utils"
)

// UpdateProfile upserts the caller's profile (onboarding and later edits).
func UpdateProfile(c *fiber.Ctx) error {
	type ProfileInput struct {
		Username string `json:"username" validate:"required,min=3,max=50,username"`
		Name     string `json:"name" validate:"omitempty,max=100"`
		Bio      string `json:"bio" validate:"omitempty,max=500"`
		Image    string `json:"image" validate:"omitempty,url,max=500"`
	}
	pi := new(ProfileInput)
	if err := utils.StrictBodyParser(c, &pi); err != nil {
		Logger.Warn(c.Context()).WithFields(err).Logs("Failed to parse profile body: %v")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if err := Validator.Validate(pi); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	userID := auth.CurrentUserID(c)
	u, err := models.UpsertUser(c.UserContext(), Redis, DB, userID, pi.Username,
		models.WithName(pi.Name),
		models.WithUserBio(pi.Bio),
		models.WithImage(pi.Image),
	)
	if err != nil {
		Logger.Error(c.Context()).Logs(fmt.Sprintf("Failed to save profile for %s: %v", userID, err))
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).Logs(fmt.Sprintf("Profile saved for %s (%s)", u.Username, u.ID))
	return utils.SendSuccess(c, u)
}

// GetUser returns one user profile.
func GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed user id"))
	}

	u, err := models.GetUserByID(c.UserContext(), Redis, DB, id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, u)
}

// SearchUsers lists users matching ?q=, paginated, excluding the caller.
func SearchUsers(c *fiber.Ctx) error {
	page, err := pageFromQuery(c, 25)
	if err != nil {
		return utils.SendError(c, err)
	}

	users, hasNext, err := models.SearchUsers(c.UserContext(), DB, auth.CurrentUserID(c), c.Query("q"), page)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"users":    users,
		"has_next": hasNext,
	})
}

// GetUserThreads returns the user's root threads and the tab count.
func GetUserThreads(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed user id"))
	}

	items, err := threads.GetThreadsByAuthor(c.UserContext(), DB, id)
	if err != nil {
		return utils.SendError(c, err)
	}

	total, err := threads.CountRootThreads(c.UserContext(), DB, id, threads.OwnerUser)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"threads": items,
		"total":   total,
	})
}

// pageFromQuery reads ?page= and ?size= with a route-specific default size.
func pageFromQuery(c *fiber.Ctx, defaultSize int) (paginator.Page, error) {
	number, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		return paginator.Page{}, utils.NewError(utils.ErrBadRequest.Code, "Malformed page number")
	}
	size, err := strconv.Atoi(c.Query("size", strconv.Itoa(defaultSize)))
	if err != nil {
		return paginator.Page{}, utils.NewError(utils.ErrBadRequest.Code, "Malformed page size")
	}
	return paginator.NewPage(number, size)
}
