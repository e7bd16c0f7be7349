package model

import "time"

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	UID   string
	Email string
}

// AuthSession is the provider sign-in persisted between runs.
type AuthSession struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	SignedInAt   time.Time
}

// Identity returns the user handle carried by the session.
func (s AuthSession) Identity() *Identity {
	return &Identity{UID: s.UID, Email: s.Email}
}
