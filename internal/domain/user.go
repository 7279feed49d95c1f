package domain

import "time"

// User is an account holder. PasswordHash is the encoded argon2id string and
// never serializes to JSON.
type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	Bio          string `json:"bio,omitempty"`

	ReadingGoal ReadingGoal `json:"readingGoal"`
}

// ReadingGoal is the yearly completion target and its maintained counter.
// Current moves with status transitions and is reconciled against the actual
// count of books finished in the current year before it is read.
type ReadingGoal struct {
	Yearly  int `json:"yearly"`
	Current int `json:"current"`
}

// DisplayName returns the user's full name, falling back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Session is a refresh-token session. TokenHash stores the sha256 of the
// opaque refresh token; the raw token is only ever held by the client.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"userAgent,omitempty"`
	IP        string    `json:"ip,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	RevokedAt time.Time `json:"revokedAt,omitzero"`
}

// Valid reports whether the session can still mint access tokens.
func (s *Session) Valid(now time.Time) bool {
	return s.RevokedAt.IsZero() && now.Before(s.ExpiresAt)
}
