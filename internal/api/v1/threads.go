package v1

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mnuddindev/threadly/internal/auth"
	"github.com/mnuddindev/threadly/internal/models"
	threads "github.com/mnuddindev/threadly/internal/models/threads"
	"github.com/mnuddindev/threadly/pkg/utils"
)

// CreateThread posts a new root thread for the caller.
func CreateThread(c *fiber.Ctx) error {
	type ThreadInput struct {
		Text        string `json:"text" validate:"required,min=1,max=2000"`
		CommunityID string `json:"community_id" validate:"omitempty,uuid"`
	}
	ti := new(ThreadInput)
	if err := utils.StrictBodyParser(c, &ti); err != nil {
		Logger.Warn(c.Context()).WithFields(err).Logs("Failed to parse thread body: %v")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}

	if err := Validator.Validate(ti); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	opts := []threads.ThreadOption{}
	if ti.CommunityID != "" {
		communityID, err := uuid.Parse(ti.CommunityID)
		if err != nil {
			return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed community id"))
		}
		opts = append(opts, threads.WithCommunity(communityID))
	}

	authorID := auth.CurrentUserID(c)
	t, err := models.CreateThread(c.UserContext(), Redis, DB, ti.Text, authorID, opts...)
	if err != nil {
		Logger.Error(c.Context()).Logs(fmt.Sprintf("Failed to create thread for %s: %v", authorID, err))
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).Logs(fmt.Sprintf("Thread %s created by %s", t.ID, authorID))
	return utils.Success(c).WithMessage("Thread created").WithData(t).Send()
}

// GetFeed returns one reverse-chronological page of root threads.
func GetFeed(c *fiber.Ctx) error {
	page, err := pageFromQuery(c, threads.DefaultFeedPageSize)
	if err != nil {
		return utils.SendError(c, err)
	}

	items, hasNext, err := models.GetFeed(c.UserContext(), Redis, DB, page, auth.CurrentUserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{
		"threads":  items,
		"has_next": hasNext,
	})
}

// GetThread returns the full reply tree of one thread, annotated for the
// viewer. A missing thread is an expected outcome (stale feed links) and
// maps to a plain not-found response.
func GetThread(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed thread id"))
	}

	tree, err := models.GetThreadTree(c.UserContext(), Redis, DB, id, auth.CurrentUserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	if tree == nil {
		return utils.SendError(c, utils.NewError(utils.ErrNotFound.Code, "Thread not found"))
	}

	return utils.SendSuccess(c, tree)
}

// AddComment adds a comment to a root thread, or a reply when
// parent_comment_id is given.
func AddComment(c *fiber.Ctx) error {
	threadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed thread id"))
	}

	type CommentInput struct {
		Text            string `json:"text" validate:"required,min=1,max=2000"`
		ParentCommentID string `json:"parent_comment_id" validate:"omitempty,uuid"`
	}
	ci := new(CommentInput)
	if err := utils.StrictBodyParser(c, &ci); err != nil {
		Logger.Warn(c.Context()).WithFields(err).Logs("Failed to parse comment body: %v")
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

	var parentCommentID *uuid.UUID
	if ci.ParentCommentID != "" {
		parsed, err := uuid.Parse(ci.ParentCommentID)
		if err != nil {
			return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed parent comment id"))
		}
		parentCommentID = &parsed
	}

	userID := auth.CurrentUserID(c)
	node, err := models.AddComment(c.UserContext(), Redis, DB, threadID, ci.Text, userID, parentCommentID)
	if err != nil {
		Logger.Error(c.Context()).Logs(fmt.Sprintf("Failed to comment on thread %s by %s: %v", threadID, userID, err))
		return utils.SendError(c, err)
	}

	return utils.Success(c).WithMessage("Comment added").WithData(node).Send()
}

// CountThreads returns the root-thread count for a user or community owner.
func CountThreads(c *fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Malformed owner id"))
	}

	kind := c.Query("owner_kind", threads.OwnerUser)
	if !utils.Contains([]string{threads.OwnerUser, threads.OwnerCommunity}, kind) {
		return utils.SendError(c, utils.NewError(utils.ErrBadRequest.Code, "Unknown owner kind: "+kind))
	}

	total, err := models.CountRootThreads(c.UserContext(), DB, ownerID, kind)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, fiber.Map{"total": total})
}
