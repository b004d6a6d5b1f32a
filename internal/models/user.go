package models

import "time"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"userName"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	TelegramChatID int64     `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}
