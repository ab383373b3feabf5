package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mnuddindev/threadly/pkg/paginator"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
)

// DefaultFeedPageSize matches the home feed page size.
const DefaultFeedPageSize = 20

// FeedItem is a root thread annotated with the viewer's like state. Its
// children come attached one call deep but stay unannotated; the thread
// detail view resolves their likes via GetThreadTree.
type FeedItem struct {
	*Thread
	LikesCount int64 `json:"likes_count"`
	UserLikes  bool  `json:"user_likes"`
}

type feedPage struct {
	Items   []*FeedItem `json:"items"`
	HasNext bool        `json:"has_next"`
}

// GetFeed returns one page of root threads, newest first, with a
// more-results signal computed from a count sharing the same filter.
func GetFeed(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, page paginator.Page, viewerID uuid.UUID) ([]*FeedItem, bool, error) {
	if err := page.Validate(); err != nil {
		return nil, false, err
	}

	// The anonymous front page is the hottest read; serve it from cache.
	cacheable := viewerID == uuid.Nil && page.Number == 1 && page.Size == DefaultFeedPageSize
	if cacheable {
		if cached, err := rclient.Get(ctx, "feed:front").Result(); err == nil {
			var fp feedPage
			if err := json.Unmarshal([]byte(cached), &fp); err == nil {
				return fp.Items, fp.HasNext, nil
			}
		}
	}

	var threads []Thread
	err := db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Preload("Author").
		Preload("Community").
		Preload("Likes").
		Preload("Children", childOrder).
		Preload("Children.Author").
		Find(&threads).Error
	if err != nil {
		return nil, false, utils.WrapStoreError(err, "Failed to fetch feed")
	}

	var total int64
	if err := db.WithContext(ctx).Model(&Thread{}).Where("parent_id IS NULL").Count(&total).Error; err != nil {
		return nil, false, utils.WrapStoreError(err, "Failed to count feed threads")
	}

	items := make([]*FeedItem, 0, len(threads))
	for i := range threads {
		node := annotate(&threads[i], viewerID)
		items = append(items, &FeedItem{
			Thread:     node.Thread,
			LikesCount: node.LikesCount,
			UserLikes:  node.UserLikes,
		})
	}

	hasNext := page.HasNext(total, len(items))

	if cacheable {
		feedData, _ := json.Marshal(feedPage{Items: items, HasNext: hasNext})
		rclient.Set(ctx, "feed:front", feedData, 1*time.Minute)
	}

	return items, hasNext, nil
}

// GetThreadsByAuthor returns a user's root threads with children attached,
// newest first. Backs the profile threads tab.
func GetThreadsByAuthor(ctx context.Context, db *gorm.DB, authorID uuid.UUID) ([]Thread, error) {
	var threads []Thread
	err := db.WithContext(ctx).
		Where("author_id = ? AND parent_id IS NULL", authorID).
		Order("created_at DESC, id DESC").
		Preload("Author").
		Preload("Community").
		Preload("Children", childOrder).
		Preload("Children.Author").
		Find(&threads).Error
	if err != nil {
		return nil, utils.WrapStoreError(err, "Failed to fetch threads of user "+authorID.String())
	}
	return threads, nil
}

// GetCommunityThreads returns a community's root threads with children
// attached, newest first. Backs the community threads tab.
func GetCommunityThreads(ctx context.Context, db *gorm.DB, communityID uuid.UUID) ([]Thread, error) {
	var threads []Thread
	err := db.WithContext(ctx).
		Where("community_id = ? AND parent_id IS NULL", communityID).
		Order("created_at DESC, id DESC").
		Preload("Author").
		Preload("Children", childOrder).
		Preload("Children.Author").
		Find(&threads).Error
	if err != nil {
		return nil, utils.WrapStoreError(err, "Failed to fetch threads of community "+communityID.String())
	}
	return threads, nil
}
