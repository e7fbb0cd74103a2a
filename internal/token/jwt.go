package token

import (
	"fmt"
	"time"

	"api-gateway/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents JWT claims with the subject account ID and the
// access/refresh discriminator.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64 `json:"account_id"`
	IsRefresh bool  `json:"is_refresh"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWT creates a new JWT token manager with the provided secret key and
// token lifetimes.
func NewJWT(secretKey string, accessTTL, refreshTTL time.Duration) model.TokenManager {
	return &JWT{secretKey: secretKey, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// GeneratePair creates a short-lived access token and a long-lived refresh
// token for the account. Both embed the subject ID; only the refresh token
// carries is_refresh=true.
func (j *JWT) GeneratePair(accountID int64) (model.TokenPair, error) {
	access, err := j.generate(accountID, j.accessTTL, false)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := j.generate(accountID, j.refreshTTL, true)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// generate signs one token. The JTI makes every issuance unique: iat/exp
// have second granularity, so without it two pairs issued within the same
// second would be byte-identical and a superseded refresh token could not be
// told apart from its replacement.
func (j *JWT) generate(accountID int64, ttl time.Duration, isRefresh bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID: accountID,
		IsRefresh: isRefresh,
	})

	return token.SignedString([]byte(j.secretKey))
}

// Decode verifies signature and expiry and extracts the token data. Any
// malformed, expired, or mis-signed token yields an error; callers treat
// that as "unauthenticated", never as a system failure.
func (j *JWT) Decode(tokenString string) (model.TokenData, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return model.TokenData{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.TokenData{}, fmt.Errorf("token is invalid")
	}
	if claims.AccountID == 0 {
		return model.TokenData{}, fmt.Errorf("token has no subject")
	}

	return model.TokenData{AccountID: claims.AccountID, IsRefresh: claims.IsRefresh}, nil
}

// AccessTTL returns the configured access-token lifetime. The token cache
// aligns entry TTLs with it so a cached pair never outlives its access token.
func (j *JWT) AccessTTL() time.Duration {
	return j.accessTTL
}
