package models

import "time"

// RefreshToken is a server-stored, rotating credential for minting new
// access tokens.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}
