package models

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mnuddindev/threadly/pkg/paginator"
	storage "github.com/mnuddindev/threadly/pkg/redis"
	"github.com/mnuddindev/threadly/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User is a profile owned by the external identity provider. The ID comes
// from that provider; this engine only stores and validates profile data.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id" validate:"required"`
	Username  string    `gorm:"size:50;not null;uniqueIndex:idx_user_username" json:"username" validate:"required,min=3,max=50,username"`
	Name      string    `gorm:"size:100" json:"name" validate:"omitempty,max=100"`
	Bio       string    `gorm:"type:text" json:"bio" validate:"omitempty,max=500"`
	Image     string    `gorm:"size:500" json:"image" validate:"omitempty,url,max=500"`
	Onboarded bool      `gorm:"default:false;index" json:"onboarded"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserOption configures a User.
type UserOption func(*User)

// UpsertUser creates the profile on first save and updates it afterwards.
// The username is case-normalized to lowercase and the onboarded flag is
// set on every successful save.
func UpsertUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, username string, opts ...UserOption) (*User, error) {
	if id == uuid.Nil {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "User id is required")
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Username is required")
	}

	u := &User{ID: id, Username: username, Onboarded: true}
	for _, opt := range opts {
		opt(u)
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "name", "bio", "image", "onboarded", "updated_at",
		}),
	}).Create(u).Error
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, utils.NewError(utils.ErrConflict.Code, "Username already taken")
		}
		return nil, utils.WrapStoreError(err, "Failed to save user "+id.String())
	}

	userData, _ := json.Marshal(u)
	rclient.Set(ctx, "user:"+u.ID.String(), userData, 10*time.Minute)

	return u, nil
}

// GetUserBy retrieves a user by condition, with optional preloading of relationships.
func GetUserBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}, preload ...string) (*User, error) {
	var u User
	query := db.WithContext(ctx).Where(condition, args...)
	for _, rel := range preload {
		query = query.Preload(rel)
	}
	if err := query.First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "User not found")
		}
		return nil, utils.WrapStoreError(err, "Failed to fetch user")
	}

	return &u, nil
}

// GetUserByID is the cached point lookup used by the identity middleware.
func GetUserByID(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID) (*User, error) {
	key := "user:" + id.String()
	if cached, err := rclient.Get(ctx, key).Result(); err == nil {
		var u User
		if err := json.Unmarshal([]byte(cached), &u); err == nil {
			return &u, nil
		}
	}

	u, err := GetUserBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	userData, _ := json.Marshal(u)
	rclient.Set(ctx, key, userData, 10*time.Minute)
	return u, nil
}

// UserExists reports whether the user id resolves.
func UserExists(ctx context.Context, db *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, utils.WrapStoreError(err, "Failed to check user "+id.String())
	}
	return count > 0, nil
}

// SearchUsers lists users matching the search string on username or name,
// excluding the searching user, newest first.
func SearchUsers(ctx context.Context, db *gorm.DB, selfID uuid.UUID, search string, page paginator.Page) ([]User, bool, error) {
	if err := page.Validate(); err != nil {
		return nil, false, err
	}

	buildQuery := func() *gorm.DB {
		q := db.WithContext(ctx).Model(&User{}).Where("id <> ?", selfID)
		if s := strings.TrimSpace(search); s != "" {
			pattern := "%" + s + "%"
			q = q.Where("username ILIKE ? OR name ILIKE ?", pattern, pattern)
		}
		return q
	}

	var users []User
	err := buildQuery().
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&users).Error
	if err != nil {
		return nil, false, utils.WrapStoreError(err, "Failed to search users")
	}

	// The count must share the exact filter of the page fetch or hasNext drifts.
	var total int64
	if err := buildQuery().Count(&total).Error; err != nil {
		return nil, false, utils.WrapStoreError(err, "Failed to count users")
	}

	return users, page.HasNext(total, len(users)), nil
}
