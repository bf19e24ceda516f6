package models

// Role controls access to the admin surface.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account as stored in the users hash,
// keyed by username. The password field holds a bcrypt digest, never
// plaintext.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	CreatedAt    int64  `json:"createdAt"` // Unix ms
	Role         Role   `json:"role,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	ProfileColor string `json:"profileColor,omitempty"`
}

// Public strips the password digest for API responses.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		CreatedAt:    u.CreatedAt,
		Role:         u.Role,
		Avatar:       u.Avatar,
		ProfileColor: u.ProfileColor,
	}
}

// PublicUser is a User without credentials.
type PublicUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	CreatedAt    int64  `json:"createdAt"`
	Role         Role   `json:"role,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	ProfileColor string `json:"profileColor,omitempty"`
}
