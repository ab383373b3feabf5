package models

import "strings"

func WithName(name string) UserOption {
	return func(u *User) { u.Name = strings.TrimSpace(name) }
}

func WithBio(bio string) UserOption {
	return func(u *User) { u.Bio = strings.TrimSpace(bio) }
}

func WithImage(image string) UserOption {
	return func(u *User) { u.Image = strings.TrimSpace(image) }
}

func WithOnboarded(onboarded bool) UserOption {
	return func(u *User) { u.Onboarded = onboarded }
}
