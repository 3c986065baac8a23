package models

// UserSession identifies the acting user for a request or workflow run.
type UserSession struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         *string `json:"email,omitempty"`
	ProfileID     string  `json:"profile_id"`
	IsSystemAdmin bool    `json:"is_system_admin"`
}

// UserID returns the session id, or "" for a nil session.
func (u *UserSession) UserID() string {
	if u == nil {
		return ""
	}
	return u.ID
}
