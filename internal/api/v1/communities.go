package v1

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mnuddindev/threadly/internal/auth"
	community "github.com/mnuddindev/threadly/internal/models/community"
	threads "github.com/mnuddindev/threadly/internal/models/threads"
	"github.com/mnuddindev/threadly/pkg/utils"
)

// CreateCommunity creates a community owned by the caller.
func CreateCommunity(c *fiber.Ctx) error {
	type CommunityInput struct {
		ID       string `json:"id" validate:"omitempty,uuid"`
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Username string `json:"username" validate:"required,min=3,max=50,username"`
		Image    string `json:"image" validate:"omitempty,url,max=500"`
		Bio      string `json:"bio" validate:"omitempty,max=500"`
	}
	ci := new(CommunityInput)
	if err := utils.StrictBodyParser(c, &ci); err != nil {
		Logger.Warn(c.Context()).WithFields(err).Logs("Failed to parse community body: %v")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if err := Validator.Validate(ci); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	id := uuid.Nil
	if ci.ID != "" {
		parsed, err := uuid.Parse(ci.ID)
		if err != nil {
			return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed community id"))
		}
		id = parsed
	}

	creatorID := auth.CurrentUserID(c)
	created, err := community.NewCommunity(c.UserContext(), Redis, DB, id, ci.Name, ci.Username, creatorID,
		community.WithImage(ci.Image),
		community.WithBio(ci.Bio),
	)
	if err != nil {
		Logger.Error(c.Context()).Logs(fmt.Sprintf("Failed to create community by %s: %v", creatorID, err))
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).Logs(fmt.Sprintf("Community %s (%s) created by %s", created.Username, created.ID, creatorID))
	return utils.Success(c).WithMessage("Community created").WithData(created).Send()
}

// GetCommunity returns the community details page payload.
func GetCommunity(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed community id"))
	}

	details, err := community.GetCommunityBy(c.UserContext(), Redis, DB, "id = ?", []interface{}{id}, "CreatedBy", "Members")
	if err != nil {
		return utils.SendError(c, err)
	}

	total, err := threads.CountRootThreads(c.UserContext(), DB, id, threads.OwnerCommunity)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"community":     details,
		"total_threads": total,
	})
}

// GetCommunities lists communities matching ?q=, paginated.
func GetCommunities(c *fiber.Ctx) error {
	page, err := pageFromQuery(c, 20)
	if err != nil {
		return utils.SendError(c, err)
	}

	communities, hasNext, err := community.GetCommunities(c.UserContext(), DB, c.Query("q"), page, c.Query("sort") == "asc")
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"communities": communities,
		"has_next":    hasNext,
	})
}

// GetCommunityThreads returns the community's root threads.
func GetCommunityThreads(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed community id"))
	}

	items, err := threads.GetCommunityThreads(c.UserContext(), DB, id)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{"threads": items})
}

// UpdateCommunity changes name, username and image.
func UpdateCommunity(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed community id"))
	}

	type UpdateInput struct {
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Username string `json:"username" validate:"required,min=3,max=50,username"`
		Image    string `json:"image" validate:"omitempty,url,max=500"`
	}
	ui := new(UpdateInput)
	if err := utils.StrictBodyParser(c, &ui); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if err := Validator.Validate(ui); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	updated, err := community.UpdateCommunityInfo(c.UserContext(), Redis, DB, id, ui.Name, ui.Username, ui.Image)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.Success(c).WithMessage("Community updated").WithData(updated).Send()
}

// AddMember links a user into the community. Re-adding is a no-op.
func AddMember(c *fiber.Ctx) error {
	communityID, userID, err := memberParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := community.AddMember(c.UserContext(), Redis, DB, communityID, userID); err != nil {
		return utils.SendError(c, err)
	}

	return utils.Success(c).WithMessage("Member added").Send()
}

// RemoveMember unlinks a user from the community. Removing a non-member is a no-op.
func RemoveMember(c *fiber.Ctx) error {
	communityID, userID, err := memberParams(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := community.RemoveMember(c.UserContext(), Redis, DB, communityID, userID); err != nil {
		return utils.SendError(c, err)
	}

	return utils.Success(c).WithMessage("Member removed").Send()
}

// DeleteCommunity removes the community with its threads and memberships.
// Safe to call again on an already-deleted id.
func DeleteCommunity(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed community id"))
	}

	if err := community.DeleteCommunity(c.UserContext(), Redis, DB, id); err != nil {
		Logger.Error(c.Context()).Logs(fmt.Sprintf("Failed to delete community %s: %v", id, err))
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).Logs(fmt.Sprintf("Community %s deleted", id))
	return utils.Success(c).WithMessage("Community deleted").Send()
}

func memberParams(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	communityID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, utils.NewError(utils.ErrBadRequest.Code, "Malformed community id")
	}
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, utils.NewError(utils.ErrBadRequest.Code, "Malformed user id")
	}
	return communityID, userID, nil
}
