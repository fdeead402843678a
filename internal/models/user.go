package models

import "time"

// User is the account summary returned by the auth and profile endpoints.
type User struct {
	ID                string             `json:"id"`
	Email             string             `json:"email"`
	Username          string             `json:"username"`
	DisplayName       string             `json:"display_name"`
	ProfilePictureURL string             `json:"profile_picture_url,omitempty"`
	Preferences       Preferences        `json:"preferences"`
	ListeningHistory  []ListeningHistory `json:"listening_history"`
	FavoriteArtists   []int              `json:"favorite_artists"`
	FavoriteGenres    []string           `json:"favorite_genres"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Name returns the display name, falling back to the username and then the email.
func (u *User) Name() string {
	switch {
	case u == nil:
		return ""
	case u.DisplayName != "":
		return u.DisplayName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// Preferences are the user-editable playback and display settings.
type Preferences struct {
	Theme           string   `json:"theme"` // light, dark
	Language        string   `json:"language"`
	ExplicitContent bool     `json:"explicit_content"`
	PreferredGenres []string `json:"preferred_genres"`
}

// ListeningHistory is one recorded play.
type ListeningHistory struct {
	TrackID   int       `json:"track_id"`
	PlayedAt  time.Time `json:"played_at"`
	Duration  int       `json:"duration"` // Seconds listened
	Completed bool      `json:"completed"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Genres      []string `json:"genres,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
