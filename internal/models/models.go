package models

import (
	community "github.com/mnuddindev/threadly/internal/models/community"
	threads "github.com/mnuddindev/threadly/internal/models/threads"
	user "github.com/mnuddindev/threadly/internal/models/user"
)

func RegisterModels() []interface{} {
	return []interface{}{
		&user.User{},
		&community.Community{},
		&threads.Thread{},
		&threads.Like{},
	}
}

type (
	User       = user.User
	Community  = community.Community
	Thread     = threads.Thread
	Like       = threads.Like
	ThreadNode = threads.ThreadNode
	FeedItem   = threads.FeedItem
)

var (
	UpsertUser   = user.UpsertUser
	GetUserBy    = user.GetUserBy
	GetUserByID  = user.GetUserByID
	SearchUsers  = user.SearchUsers
	WithName     = user.WithName
	WithUserBio  = user.WithBio
	WithImage    = user.WithImage
	NewCommunity = community.NewCommunity

	CreateThread     = threads.CreateThread
	AddComment       = threads.AddComment
	GetThreadBy      = threads.GetThreadBy
	GetThreadTree    = threads.GetThreadTree
	GetFeed          = threads.GetFeed
	CountRootThreads = threads.CountRootThreads
	ToggleLike       = threads.ToggleLike
	LikesCount       = threads.LikesCount
	HasUserLiked     = threads.HasUserLiked
	LikedBy          = threads.LikedBy
)
