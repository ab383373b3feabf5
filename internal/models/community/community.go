package models

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	user "github.com/mnuddindev/threadly/internal/models/user"
	"github.com/mnuddindev/threadly/pkg/paginator"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
)

// Community groups root threads under a shared owner. Threads reference it
// through their CommunityID; the community never owns thread mutation.
type Community struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name" validate:"required,min=2,max=100"`
	Username    string    `gorm:"size:50;not null;uniqueIndex:idx_community_username" json:"username" validate:"required,min=3,max=50,username"`
	Image       string    `gorm:"size:500" json:"image" validate:"omitempty,url,max=500"`
	Bio         string    `gorm:"type:text" json:"bio" validate:"omitempty,max=500"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null;index:idx_community_creator" json:"created_by_id" validate:"required"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	CreatedBy user.User   `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"created_by" validate:"-"`
	Members   []user.User `gorm:"many2many:community_members;" json:"members" validate:"-"`
}

// CommunityOption configures a Community.
type CommunityOption func(*Community)

// NewCommunity creates a community. The creator must resolve and becomes a
// member implicitly.
func NewCommunity(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, name, username string, createdByID uuid.UUID, opts ...CommunityOption) (*Community, error) {
	name = strings.TrimSpace(name)
	username = strings.ToLower(strings.TrimSpace(username))
	if name == "" || username == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: name, username")
	}

	creator, err := user.GetUserBy(ctx, rclient, db, "id = ?", []interface{}{createdByID})
	if err != nil {
		return nil, err
	}

	c := &Community{
		ID:          id,
		Name:        name,
		Username:    username,
		CreatedByID: creator.ID,
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for _, opt := range opts {
		opt(c)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				return utils.NewError(utils.ErrConflict.Code, "Community username already taken")
			}
			return utils.WrapStoreError(err, "Failed to create community")
		}
		if err := tx.Model(c).Association("Members").Append(creator); err != nil {
			return utils.WrapStoreError(err, "Failed to add creator to community "+c.ID.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	communityData, _ := json.Marshal(c)
	rclient.Set(ctx, "community:"+c.ID.String(), communityData, 10*time.Minute)

	return c, nil
}

// GetCommunityBy retrieves a community by condition, with optional preloading of relationships.
func GetCommunityBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}, preload ...string) (*Community, error) {
	var c Community
	query := db.WithContext(ctx).Where(condition, args...)
	for _, rel := range preload {
		query = query.Preload(rel)
	}
	if err := query.First(&c).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Community not found")
		}
		return nil, utils.WrapStoreError(err, "Failed to fetch community")
	}

	return &c, nil
}

// CommunityExists reports whether the community id resolves.
func CommunityExists(ctx context.Context, db *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Community{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, utils.WrapStoreError(err, "Failed to check community "+id.String())
	}
	return count > 0, nil
}

// GetCommunities lists communities matching the search string on username or
// name, paginated, newest first by default.
func GetCommunities(ctx context.Context, db *gorm.DB, search string, page paginator.Page, sortAsc bool) ([]Community, bool, error) {
	if err := page.Validate(); err != nil {
		return nil, false, err
	}

	buildQuery := func() *gorm.DB {
		q := db.WithContext(ctx).Model(&Community{})
		if s := strings.TrimSpace(search); s != "" {
			pattern := "%" + s + "%"
			q = q.Where("username ILIKE ? OR name ILIKE ?", pattern, pattern)
		}
		return q
	}

	order := "created_at DESC, id DESC"
	if sortAsc {
		order = "created_at ASC, id ASC"
	}

	var communities []Community
	err := buildQuery().
		Order(order).
		Offset(page.Offset()).
		Limit(page.Limit()).
		Preload("Members").
		Find(&communities).Error
	if err != nil {
		return nil, false, utils.WrapStoreError(err, "Failed to fetch communities")
	}

	var total int64
	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, false, utils.WrapStoreError(err, "Failed to count communities")
	}

	return communities, page.HasNext(total, len(communities)), nil
}

// UpdateCommunityInfo changes name, username and image of an existing community.
func UpdateCommunityInfo(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, name, username, image string) (*Community, error) {
	c, err := GetCommunityBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":     strings.TrimSpace(name),
		"username": strings.ToLower(strings.TrimSpace(username)),
		"image":    strings.TrimSpace(image),
	}
	if err := db.WithContext(ctx).Model(c).Updates(updates).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, utils.NewError(utils.ErrConflict.Code, "Community username already taken")
		}
		return nil, utils.WrapStoreError(err, "Failed to update community "+id.String())
	}

	rclient.Invalidate(ctx, "community:"+id.String())
	return c, nil
}

// AddMember links the user into the community's membership set. Adding an
// existing member is a no-op.
func AddMember(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, communityID, userID uuid.UUID) error {
	c, err := GetCommunityBy(ctx, rclient, db, "id = ?", []interface{}{communityID})
	if err != nil {
		return err
	}
	u, err := user.GetUserBy(ctx, rclient, db, "id = ?", []interface{}{userID})
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Model(c).Association("Members").Append(u); err != nil {
		return utils.WrapStoreError(err, "Failed to add member "+userID.String()+" to community "+communityID.String())
	}

	rclient.Invalidate(ctx, "community:"+communityID.String())
	return nil
}

// RemoveMember unlinks the user from the community's membership set.
// Removing a non-member is a no-op.
func RemoveMember(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, communityID, userID uuid.UUID) error {
	c, err := GetCommunityBy(ctx, rclient, db, "id = ?", []interface{}{communityID})
	if err != nil {
		return err
	}
	u, err := user.GetUserBy(ctx, rclient, db, "id = ?", []interface{}{userID})
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Model(c).Association("Members").Delete(u); err != nil {
		return utils.WrapStoreError(err, "Failed to remove member "+userID.String()+" from community "+communityID.String())
	}

	rclient.Invalidate(ctx, "community:"+communityID.String())
	return nil
}

// DeleteCommunity removes the community's thread subtrees, its membership
// rows and finally the community row. The row goes last: the Thread FK on
// community_id nulls on community delete, so removing the row first would
// strand the threads with nothing left matching community_id. Comments go
// before their roots for the same reason, via the parent_id reference.
// The steps are not one transaction; each tolerates already-deleted rows
// so a re-run after partial failure converges.
func DeleteCommunity(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID) error {
	// Likes on these nodes go with them through the FK cascade.
	if err := db.WithContext(ctx).Exec("DELETE FROM threads WHERE parent_id IN (SELECT id FROM threads WHERE community_id = ?)", id).Error; err != nil {
		return utils.WrapStoreError(err, "Failed to delete comments of community "+id.String())
	}

	if err := db.WithContext(ctx).Exec("DELETE FROM threads WHERE community_id = ?", id).Error; err != nil {
		return utils.WrapStoreError(err, "Failed to delete threads of community "+id.String())
	}

	if err := db.WithContext(ctx).Model(&Community{ID: id}).Association("Members").Clear(); err != nil {
		return utils.WrapStoreError(err, "Failed to clear members of community "+id.String())
	}

	res := db.WithContext(ctx).Delete(&Community{}, "id = ?", id)
	if res.Error != nil {
		return utils.WrapStoreError(res.Error, "Failed to delete community "+id.String())
	}

	rclient.Invalidate(ctx, "community:"+id.String(), "feed:front")
	return nil
}
