package models

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	community "github.com/mnuddindev/threadly/internal/models/community"
	user "github.com/mnuddindev/threadly/internal/models/user"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
)

// Thread is every content node: root threads, comments and replies share
// this one shape and are told apart by their nesting pointers.
//
// ParentID always points at the root thread id, even on second-level
// replies, so any node's root is one lookup away. ParentCommentID is set
// only on second-level replies and points at the immediate parent comment.
// Depth is capped at two levels below the root.
type Thread struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Text            string     `gorm:"type:text;not null" json:"text" validate:"required,min=1,max=2000"`
	AuthorID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_thread_author" json:"author_id" validate:"required"`
	CommunityID     *uuid.UUID `gorm:"type:uuid;index:idx_thread_community" json:"community_id,omitempty" validate:"omitempty"`
	ParentID        *uuid.UUID `gorm:"type:uuid;index:idx_thread_parent" json:"parent_id,omitempty" validate:"omitempty"`
	ParentCommentID *uuid.UUID `gorm:"type:uuid;index:idx_thread_parent_comment" json:"parent_comment_id,omitempty" validate:"omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_thread_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Author    user.User            `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author" validate:"-"`
	Community *community.Community `gorm:"foreignKey:CommunityID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"community,omitempty" validate:"-"`

	// Children carries every node below this root (both comment levels,
	// because ParentID is flattened to the root). ChildComments carries
	// only the direct replies of a comment.
	Children      []Thread `gorm:"foreignKey:ParentID" json:"children,omitempty" validate:"-"`
	ChildComments []Thread `gorm:"foreignKey:ParentCommentID" json:"child_comments,omitempty" validate:"-"`
	Likes         []Like   `gorm:"foreignKey:ThreadID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-" validate:"-"`
}

// Node classification, derived from the nesting pointers.
func (t *Thread) IsRoot() bool    { return t.ParentID == nil }
func (t *Thread) IsComment() bool { return t.ParentID != nil && t.ParentCommentID == nil }
func (t *Thread) IsReply() bool   { return t.ParentID != nil && t.ParentCommentID != nil }

// Owner kinds for CountRootThreads.
const (
	OwnerUser      = "user"
	OwnerCommunity = "community"
)

// ThreadOption configures a Thread.
type ThreadOption func(*Thread)

// CreateThread inserts a new root thread for the author and, when given,
// links it under a community.
func CreateThread(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, text string, authorID uuid.UUID, opts ...ThreadOption) (*Thread, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Thread text is required")
	}

	t := &Thread{
		ID:       uuid.New(),
		Text:     text,
		AuthorID: authorID,
	}
	for _, opt := range opts {
		opt(t)
	}

	exists, err := user.UserExists(ctx, db, authorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, utils.NewError(utils.ErrNotFound.Code, "Author not found: "+authorID.String())
	}

	if t.CommunityID != nil {
		exists, err := community.CommunityExists(ctx, db, *t.CommunityID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Community not found: "+t.CommunityID.String())
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return utils.WrapStoreError(err, "Failed to create thread")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rclient.Invalidate(ctx, "feed:front")
	return t, nil
}

// AddComment creates a comment under a root thread, or a second-level
// reply when parentCommentID is given. The new node's ParentID is always
// the root thread id; create and link are the same row write, done in one
// transaction so readers never see a half-linked node.
func AddComment(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, threadID uuid.UUID, text string, userID uuid.UUID, parentCommentID *uuid.UUID) (*Thread, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Comment text is required")
	}

	root, err := GetThreadBy(ctx, rclient, db, "id = ?", []interface{}{threadID})
	if err != nil {
		return nil, err
	}
	if !root.IsRoot() {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Comments attach to root threads, not to "+threadID.String())
	}

	exists, err := user.UserExists(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, utils.NewError(utils.ErrNotFound.Code, "User not found: "+userID.String())
	}

	if parentCommentID != nil {
		parent, err := GetThreadBy(ctx, rclient, db, "id = ?", []interface{}{*parentCommentID})
		if err != nil {
			return nil, err
		}
		if parent.ParentID == nil || *parent.ParentID != root.ID {
			return nil, utils.NewError(utils.ErrBadRequest.Code, "Parent comment belongs to a different thread")
		}
		if parent.ParentCommentID != nil {
			// Nesting is capped at thread -> comment -> reply.
			return nil, utils.NewError(utils.ErrBadRequest.Code, "Replies to replies are not supported")
		}
	}

	node := &Thread{
		ID:              uuid.New(),
		Text:            text,
		AuthorID:        userID,
		ParentID:        &root.ID,
		ParentCommentID: parentCommentID,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(node).Error; err != nil {
			return utils.WrapStoreError(err, "Failed to add comment to thread "+root.ID.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rclient.Invalidate(ctx, "thread:"+root.ID.String(), "feed:front")
	return node, nil
}

// GetThreadBy retrieves a thread node by condition, with optional preloading of relationships.
func GetThreadBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}, preload ...string) (*Thread, error) {
	var t Thread
	query := db.WithContext(ctx).Where(condition, args...)
	for _, rel := range preload {
		query = query.Preload(rel)
	}
	if err := query.First(&t).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Thread not found")
		}
		return nil, utils.WrapStoreError(err, "Failed to fetch thread")
	}

	return &t, nil
}

// CountRootThreads counts the root threads owned by a user or belonging
// to a community. Comments never count.
func CountRootThreads(ctx context.Context, db *gorm.DB, ownerID uuid.UUID, ownerKind string) (int64, error) {
	query := db.WithContext(ctx).Model(&Thread{}).Where("parent_id IS NULL")
	switch ownerKind {
	case OwnerUser:
		query = query.Where("author_id = ?", ownerID)
	case OwnerCommunity:
		query = query.Where("community_id = ?", ownerID)
	default:
		return 0, utils.NewError(utils.ErrBadRequest.Code, "Unknown owner kind: "+ownerKind)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, utils.WrapStoreError(err, "Failed to count threads of "+ownerKind+" "+ownerID.String())
	}
	return count, nil
}
