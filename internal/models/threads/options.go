package models

import (
	"github.com/google/uuid"
)

func WithCommunity(communityID uuid.UUID) ThreadOption {
	return func(t *Thread) {
		if communityID != uuid.Nil {
			t.CommunityID = &communityID
		}
	}
}

func WithThreadID(id uuid.UUID) ThreadOption {
	return func(t *Thread) {
		if id != uuid.Nil {
			t.ID = id
		}
	}
}
