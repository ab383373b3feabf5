package models

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
)

// ThreadNode is one node of an assembled reply tree, annotated with like
// metadata relative to the viewer. For the root node Comments holds the
// first-level comments; for a comment node it holds the replies.
type ThreadNode struct {
	*Thread
	LikesCount int64         `json:"likes_count"`
	UserLikes  bool          `json:"user_likes"`
	Comments   []*ThreadNode `json:"comments,omitempty"`
}

// GetThreadTree loads a root thread with both comment levels and per-node
// like annotations. A missing thread returns (nil, nil): stale feeds link
// to deleted threads routinely, so absence is an expected outcome.
func GetThreadTree(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, threadID, viewerID uuid.UUID) (*ThreadNode, error) {
	var t Thread
	err := db.WithContext(ctx).
		Preload("Author").
		Preload("Community").
		Preload("Likes").
		Preload("Children", childOrder).
		Preload("Children.Author").
		Preload("Children.Likes").
		First(&t, "id = ?", threadID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, utils.WrapStoreError(err, "Failed to fetch thread "+threadID.String())
	}

	return BuildThreadTree(&t, viewerID), nil
}

// BuildThreadTree groups a root's flat Children slice (both nesting levels,
// all carrying the root's id in ParentID) into first-level comments with
// their replies nested, and annotates every node for the viewer. Siblings
// are ordered by creation time ascending, id as the stable tie-break.
func BuildThreadTree(root *Thread, viewerID uuid.UUID) *ThreadNode {
	children := root.Children
	root.Children = nil

	sort.SliceStable(children, func(i, j int) bool {
		if children[i].CreatedAt.Equal(children[j].CreatedAt) {
			return lessID(children[i].ID, children[j].ID)
		}
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})

	tree := annotate(root, viewerID)

	// Register every first-level comment before attaching replies; with one
	// pass a reply sorting ahead of its same-timestamp parent would miss
	// the map and leak to the top level.
	comments := make(map[uuid.UUID]*ThreadNode, len(children))
	for i := range children {
		child := &children[i]
		if child.ParentCommentID != nil {
			continue
		}
		node := annotate(child, viewerID)
		comments[child.ID] = node
		tree.Comments = append(tree.Comments, node)
	}

	for i := range children {
		child := &children[i]
		if child.ParentCommentID == nil {
			continue
		}
		node := annotate(child, viewerID)

		parent, ok := comments[*child.ParentCommentID]
		if !ok {
			// Reply whose parent comment is gone; surface it at the top
			// level rather than dropping it.
			tree.Comments = append(tree.Comments, node)
			continue
		}
		parent.Comments = append(parent.Comments, node)
	}

	return tree
}

// annotate wraps a node with its like count and the viewer's like state.
func annotate(t *Thread, viewerID uuid.UUID) *ThreadNode {
	node := &ThreadNode{Thread: t, LikesCount: int64(len(t.Likes))}
	if viewerID != uuid.Nil {
		for _, like := range t.Likes {
			if like.UserID == viewerID {
				node.UserLikes = true
				break
			}
		}
	}
	return node
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// childOrder is the sibling ordering applied to preloaded children.
func childOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}
