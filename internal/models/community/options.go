package models

import "strings"

func WithImage(image string) CommunityOption {
	return func(c *Community) { c.Image = strings.TrimSpace(image) }
}

func WithBio(bio string) CommunityOption {
	return func(c *Community) { c.Bio = strings.TrimSpace(bio) }
}
