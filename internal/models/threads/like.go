package models

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	user "github.com/mnuddindev/threadly/internal/models/user"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
)

// Like is one user's active reaction on one content node. The composite
// unique index is the store-level guarantee behind the toggle protocol:
// at most one row per (user, node), no application lock needed.
type Like struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_thread" json:"user_id" validate:"required"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_user_thread" json:"thread_id" validate:"required"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User   user.User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user" validate:"-"`
	Thread Thread    `gorm:"foreignKey:ThreadID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-" validate:"-"`
}

// ToggleLike flips the user's like on a node: absent creates it, present
// deletes it. Callers cannot force a state, only flip. Concurrent toggles
// from the same user resolve through the unique index: a duplicate insert
// means another call already liked, a missing delete means another call
// already unliked; both are no-ops, not failures.
func ToggleLike(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, userID, threadID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || threadID == uuid.Nil {
		return false, utils.NewError(utils.ErrBadRequest.Code, "User id and thread id are required")
	}

	var existing Like
	err := db.WithContext(ctx).Where("user_id = ? AND thread_id = ?", userID, threadID).First(&existing).Error
	switch {
	case err == nil:
		res := db.WithContext(ctx).Delete(&Like{}, "id = ?", existing.ID)
		if res.Error != nil {
			return false, likeFailed(res.Error, userID, threadID)
		}
		// RowsAffected 0: a concurrent toggle already removed it.
		invalidateLike(ctx, rclient, threadID)
		return false, nil

	case err == gorm.ErrRecordNotFound:
		like := &Like{ID: uuid.New(), UserID: userID, ThreadID: threadID}
		if err := db.WithContext(ctx).Create(like).Error; err != nil {
			if isDuplicateKey(err) {
				// A concurrent toggle won the insert; already liked.
				invalidateLike(ctx, rclient, threadID)
				return true, nil
			}
			return false, likeFailed(err, userID, threadID)
		}
		invalidateLike(ctx, rclient, threadID)
		return true, nil

	default:
		return false, likeFailed(err, userID, threadID)
	}
}

// LikesCount returns the number of active likes on a node, with a short
// read-through cache.
func LikesCount(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, threadID uuid.UUID) (int64, error) {
	key := "likes:" + threadID.String()
	if cached, err := rclient.Get(ctx, key).Result(); err == nil {
		if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return count, nil
		}
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Like{}).Where("thread_id = ?", threadID).Count(&count).Error; err != nil {
		return 0, utils.WrapStoreError(err, "Failed to count likes of thread "+threadID.String())
	}

	rclient.Set(ctx, key, strconv.FormatInt(count, 10), 30*time.Second)
	return count, nil
}

// HasUserLiked reports whether the user has an active like on the node.
func HasUserLiked(ctx context.Context, db *gorm.DB, userID, threadID uuid.UUID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&Like{}).Where("user_id = ? AND thread_id = ?", userID, threadID).Count(&count).Error
	if err != nil {
		return false, likeFailed(err, userID, threadID)
	}
	return count > 0, nil
}

// LikedBy returns the users currently liking the node, oldest like first.
func LikedBy(ctx context.Context, db *gorm.DB, threadID uuid.UUID) ([]user.User, error) {
	var likes []Like
	err := db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Preload("User").
		Find(&likes).Error
	if err != nil {
		return nil, utils.WrapStoreError(err, "Failed to fetch liked users of thread "+threadID.String())
	}

	users := make([]user.User, 0, len(likes))
	for _, like := range likes {
		users = append(users, like.User)
	}
	return users, nil
}

// likeFailed wraps an unresolved persistence failure with both identifiers.
func likeFailed(err error, userID, threadID uuid.UUID) *utils.CustomError {
	return utils.WrapStoreError(err,
		"Like operation failed for user "+userID.String()+" on thread "+threadID.String())
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key")
}

func invalidateLike(ctx context.Context, rclient *storage.RedisClient, threadID uuid.UUID) {
	rclient.Invalidate(ctx, "likes:"+threadID.String(), "thread:"+threadID.String(), "feed:front")
}
