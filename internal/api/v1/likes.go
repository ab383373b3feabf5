package v1

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mnuddindev/threadly/internal/auth"
	"github.com/mnuddindev/threadly/internal/models"
	"github.com/mnuddindev/threadly/pkg/utils"
)

// ToggleLike flips the caller's like on a content node.
func ToggleLike(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed thread id"))
	}

	userID := auth.CurrentUserID(c)
	liked, err := models.ToggleLike(c.UserContext(), Redis, DB, userID, threadID)
	if err != nil {
		Logger.Error(c.Context()).Logs(fmt.Sprintf("Like toggle failed for %s on %s: %v", userID, threadID, err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{"liked": liked})
}

// GetLikes returns the like count, the liking users and the caller's own
// like state for one node.
func GetLikes(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed thread id"))
	}

	count, err := models.LikesCount(c.UserContext(), Redis, DB, threadID)
	if err != nil {
		return utils.SendError(c, err)
	}

	users, err := models.LikedBy(c.UserContext(), DB, threadID)
	if err != nil {
		return utils.SendError(c, err)
	}

	userLikes := false
	if viewerID := auth.CurrentUserID(c); viewerID != uuid.Nil {
		userLikes, err = models.HasUserLiked(c.UserContext(), DB, viewerID, threadID)
		if err != nil {
			return utils.SendError(c, err)
		}
	}

	return utils.SendSuccess(c, fiber.Map{
		"count":      count,
		"users":      users,
		"user_likes": userLikes,
	})
}
