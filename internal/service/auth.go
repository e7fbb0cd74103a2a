package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"api-gateway/internal/logger"
	"api-gateway/internal/model"
)

// Auth is the credential store: it owns account records, password
// verification, and token pair issuance with the cache in front.
type Auth struct {
	accounts model.AccountStore
	cache    model.TokenCache
	tokens   model.TokenManager
	logger   *logger.Logger
}

func NewAuth(
	accounts model.AccountStore,
	cache model.TokenCache,
	tokens model.TokenManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		accounts: accounts,
		cache:    cache,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a new account with a hashed password. Duplicate username
// or email yields model.ErrDuplicateIdentity.
func (a *Auth) Register(ctx context.Context, username, email, password string) (model.Account, error) {
	a.logger.Debug("Auth service: registering account",
		"username", username)

	hash, err := hashPassword(password)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := a.accounts.Create(ctx, model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateIdentity) {
			a.logger.Info("Auth service: duplicate identity on register",
				"username", username)
			return model.Account{}, err
		}
		a.logger.Error("Auth service: failed to create account",
			"username", username,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	a.logger.Info("Auth service: account registered",
		"account_id", account.ID,
		"username", username)

	return account, nil
}

// Authenticate verifies credentials. The identifier may be a username or an
// email. Unknown identifier and wrong password are indistinguishable to the
// caller.
func (a *Auth) Authenticate(ctx context.Context, identifier, password string) (model.Account, error) {
	account, err := a.accounts.GetByEmail(ctx, identifier)
	if errors.Is(err, model.ErrNotFound) {
		account, err = a.accounts.GetByUsername(ctx, identifier)
	}
	if errors.Is(err, model.ErrNotFound) {
		return model.Account{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if !verifyPassword(password, account.PasswordHash) {
		return model.Account{}, model.ErrInvalidCredentials
	}

	return account, nil
}

// Login authenticates and returns a token pair, reusing the cached pair when
// one is still live so repeated logins do not re-sign needlessly. A cache
// backend outage fails the login with model.ErrCacheUnavailable.
//
// Two logins for the same account racing past a cache miss may both issue
// fresh pairs; the later Put wins. That weak-consistency window is accepted.
func (a *Auth) Login(ctx context.Context, identifier, password string) (model.TokenPair, error) {
	account, err := a.Authenticate(ctx, identifier, password)
	if err != nil {
		return model.TokenPair{}, err
	}

	pair, res := a.cache.Get(ctx, account.ID)
	switch res {
	case model.CacheHit:
		a.logger.Debug("Auth service: login served from token cache",
			"account_id", account.ID)
		return pair, nil
	case model.CacheUnavailable:
		a.logger.Error("Auth service: token cache unavailable during login",
			"account_id", account.ID)
		return model.TokenPair{}, model.ErrCacheUnavailable
	}

	return a.issueAndCache(ctx, account.ID)
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// decode as a refresh token and match the currently cached refresh token for
// the account; a superseded token is rejected so rotated-out tokens cannot
// be replayed.
func (a *Auth) Refresh(ctx context.Context, presentedRefresh string) (model.TokenPair, error) {
	data, err := a.tokens.Decode(presentedRefresh)
	if err != nil || !data.IsRefresh {
		return model.TokenPair{}, model.ErrUnauthenticated
	}

	cached, res := a.cache.Get(ctx, data.AccountID)
	switch res {
	case model.CacheMiss:
		// No live pair on record: either expired or never issued.
		return model.TokenPair{}, model.ErrUnauthenticated
	case model.CacheUnavailable:
		a.logger.Error("Auth service: token cache unavailable during refresh",
			"account_id", data.AccountID)
		return model.TokenPair{}, model.ErrCacheUnavailable
	}

	if subtle.ConstantTimeCompare([]byte(cached.RefreshToken), []byte(presentedRefresh)) != 1 {
		a.logger.Info("Auth service: superseded refresh token rejected",
			"account_id", data.AccountID)
		return model.TokenPair{}, model.ErrTokenMismatch
	}

	if _, err := a.accounts.GetByID(ctx, data.AccountID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, model.ErrUnauthenticated
		}
		return model.TokenPair{}, fmt.Errorf("failed to look up account: %w", err)
	}

	return a.issueAndCache(ctx, data.AccountID)
}

// ResolveAccess decodes an access token and loads its account. Refresh
// tokens are never accepted here.
func (a *Auth) ResolveAccess(ctx context.Context, accessToken string) (model.Account, error) {
	data, err := a.tokens.Decode(accessToken)
	if err != nil || data.IsRefresh {
		return model.Account{}, model.ErrUnauthenticated
	}

	account, err := a.accounts.GetByID(ctx, data.AccountID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Account{}, model.ErrUnauthenticated
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	return account, nil
}

// GetAccount loads an account by ID.
func (a *Auth) GetAccount(ctx context.Context, accountID int64) (model.Account, error) {
	account, err := a.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	return account, nil
}

// UpdateAccount applies a partial credentials update. Password changes are
// re-hashed here; username/email conflicts surface as
// model.ErrDuplicateIdentity.
func (a *Auth) UpdateAccount(ctx context.Context, accountID int64, username, email, password *string) (model.Account, error) {
	update := model.AccountUpdate{Username: username, Email: email}

	if password != nil {
		hash, err := hashPassword(*password)
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	if update.Empty() {
		return model.Account{}, model.ErrEmptyUpdate
	}

	account, err := a.accounts.Update(ctx, accountID, update)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateIdentity) || errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrEmptyUpdate) {
			return model.Account{}, err
		}
		a.logger.Error("Auth service: failed to update account",
			"account_id", accountID,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	a.logger.Info("Auth service: account updated",
		"account_id", accountID)

	return account, nil
}

func (a *Auth) issueAndCache(ctx context.Context, accountID int64) (model.TokenPair, error) {
	pair, err := a.tokens.GeneratePair(accountID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue token pair: %w", err)
	}

	// The pair is already validly issued; a failed cache write must not fail
	// the request.
	if err := a.cache.Put(ctx, accountID, pair, a.tokens.AccessTTL()); err != nil {
		a.logger.Warn("Auth service: failed to cache token pair",
			"account_id", accountID,
			"error", err.Error())
	}

	a.logger.Info("Auth service: token pair issued",
		"account_id", accountID)

	return pair, nil
}
