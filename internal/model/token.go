package model

import "time"

// TokenManager generates and decodes access/refresh tokens.
type TokenManager interface {
	GeneratePair(accountID int64) (TokenPair, error)
	Decode(token string) (TokenData, error)
	AccessTTL() time.Duration
}

// TokenPair is an access/refresh token pair as issued to a client and as
// cached server-side. Field names follow the wire format.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenData is the decoded content of a verified token.
type TokenData struct {
	AccountID int64
	IsRefresh bool
}
