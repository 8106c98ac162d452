package domain

import "time"

// UserRecord is the persisted identity for a device. Login is simulated:
// there is no password and no verification, only the email the user typed.
type UserRecord struct {
	Email      string    `json:"email"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// DisplayName returns the local part of the email, matching what clients
// show on the login button.
func (u *UserRecord) DisplayName() string {
	for i := range len(u.Email) {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
