package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"api-gateway/internal/model"
	"api-gateway/internal/testutil"
	"api-gateway/internal/token"
)

type accountStoreMock struct {
	mock.Mock
}

func (m *accountStoreMock) Create(ctx context.Context, account model.Account) (model.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *accountStoreMock) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *accountStoreMock) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *accountStoreMock) GetByID(ctx context.Context, id int64) (model.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *accountStoreMock) Update(ctx context.Context, id int64, update model.AccountUpdate) (model.Account, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(model.Account), args.Error(1)
}

// stubCache is a tri-state cache fake; unavailable forces the outage path.
type stubCache struct {
	pairs       map[int64]model.TokenPair
	unavailable bool
}

func newStubCache() *stubCache {
	return &stubCache{pairs: make(map[int64]model.TokenPair)}
}

func (c *stubCache) Get(_ context.Context, accountID int64) (model.TokenPair, model.CacheResult) {
	if c.unavailable {
		return model.TokenPair{}, model.CacheUnavailable
	}
	pair, ok := c.pairs[accountID]
	if !ok {
		return model.TokenPair{}, model.CacheMiss
	}
	return pair, model.CacheHit
}

func (c *stubCache) Put(_ context.Context, accountID int64, pair model.TokenPair, _ time.Duration) error {
	c.pairs[accountID] = pair
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := hashPassword(password)
	require.NoError(t, err)
	return hash
}

func newTestAuth(t *testing.T, accounts *accountStoreMock, cache model.TokenCache) *Auth {
	t.Helper()
	tokens := token.NewJWT("test-secret", 15*time.Minute, 24*time.Hour)
	return NewAuth(accounts, cache, tokens, testutil.MakeNoopLogger())
}

func TestAuth_Register_Success(t *testing.T) {
	accounts := &accountStoreMock{}
	accounts.On("Create", mock.Anything, mock.MatchedBy(func(a model.Account) bool {
		return a.Username == "alice" && a.Email == "alice@x.com" && a.PasswordHash != "" && a.PasswordHash != "pw12345678"
	})).Return(model.Account{ID: 1, Username: "alice", Email: "alice@x.com"}, nil)

	a := newTestAuth(t, accounts, newStubCache())

	account, err := a.Register(context.Background(), "alice", "alice@x.com", "pw12345678")
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)
	accounts.AssertExpectations(t)
}

func TestAuth_Register_Duplicate(t *testing.T) {
	accounts := &accountStoreMock{}
	accounts.On("Create", mock.Anything, mock.Anything).Return(model.Account{}, model.ErrDuplicateIdentity)

	a := newTestAuth(t, accounts, newStubCache())

	_, err := a.Register(context.Background(), "alice", "alice@x.com", "pw12345678")
	require.ErrorIs(t, err, model.ErrDuplicateIdentity)
}

func TestAuth_Authenticate(t *testing.T) {
	hash := mustHash(t, "pw12345678")
	stored := model.Account{ID: 7, Username: "alice", Email: "alice@x.com", PasswordHash: hash}

	tests := []struct {
		name       string
		identifier string
		password   string
		setup      func(m *accountStoreMock)
		wantErr    error
	}{
		{
			name:       "by email",
			identifier: "alice@x.com",
			password:   "pw12345678",
			setup: func(m *accountStoreMock) {
				m.On("GetByEmail", mock.Anything, "alice@x.com").Return(stored, nil)
			},
		},
		{
			name:       "by username",
			identifier: "alice",
			password:   "pw12345678",
			setup: func(m *accountStoreMock) {
				m.On("GetByEmail", mock.Anything, "alice").Return(model.Account{}, model.ErrNotFound)
				m.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
			},
		},
		{
			name:       "wrong password",
			identifier: "alice",
			password:   "wrongpass",
			setup: func(m *accountStoreMock) {
				m.On("GetByEmail", mock.Anything, "alice").Return(model.Account{}, model.ErrNotFound)
				m.On("GetByUsername", mock.Anything, "alice").Return(stored, nil)
			},
			wantErr: model.ErrInvalidCredentials,
		},
		{
			name:       "unknown identifier",
			identifier: "nobody",
			password:   "pw12345678",
			setup: func(m *accountStoreMock) {
				m.On("GetByEmail", mock.Anything, "nobody").Return(model.Account{}, model.ErrNotFound)
				m.On("GetByUsername", mock.Anything, "nobody").Return(model.Account{}, model.ErrNotFound)
			},
			wantErr: model.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &accountStoreMock{}
			tt.setup(accounts)
			a := newTestAuth(t, accounts, newStubCache())

			account, err := a.Authenticate(context.Background(), tt.identifier, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.ID, account.ID)
		})
	}
}

func TestAuth_Login_IssuesAndCaches(t *testing.T) {
	hash := mustHash(t, "pw12345678")
	accounts := &accountStoreMock{}
	accounts.On("GetByEmail", mock.Anything, "alice@x.com").Return(
		model.Account{ID: 7, Email: "alice@x.com", PasswordHash: hash}, nil)

	cache := newStubCache()
	a := newTestAuth(t, accounts, cache)

	pair, err := a.Login(context.Background(), "alice@x.com", "pw12345678")
	require.NoError(t, err)

	access, err := a.tokens.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), access.AccountID)
	assert.False(t, access.IsRefresh)

	refresh, err := a.tokens.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefresh)

	// Second login reuses the cached pair instead of re-signing.
	again, err := a.Login(context.Background(), "alice@x.com", "pw12345678")
	require.NoError(t, err)
	assert.Equal(t, pair, again)
}

func TestAuth_Login_CacheUnavailable(t *testing.T) {
	hash := mustHash(t, "pw12345678")
	accounts := &accountStoreMock{}
	accounts.On("GetByEmail", mock.Anything, "alice@x.com").Return(
		model.Account{ID: 7, Email: "alice@x.com", PasswordHash: hash}, nil)

	cache := newStubCache()
	cache.unavailable = true
	a := newTestAuth(t, accounts, cache)

	_, err := a.Login(context.Background(), "alice@x.com", "pw12345678")
	require.ErrorIs(t, err, model.ErrCacheUnavailable)
}

func TestAuth_Login_BadCredentialsDoNotTouchCache(t *testing.T) {
	hash := mustHash(t, "pw12345678")
	accounts := &accountStoreMock{}
	accounts.On("GetByEmail", mock.Anything, "alice@x.com").Return(
		model.Account{ID: 7, Email: "alice@x.com", PasswordHash: hash}, nil)

	cache := newStubCache()
	a := newTestAuth(t, accounts, cache)

	_, err := a.Login(context.Background(), "alice@x.com", "wrongpass")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Empty(t, cache.pairs)
}

func TestAuth_Refresh_RotatesPair(t *testing.T) {
	hash := mustHash(t, "pw12345678")
	accounts := &accountStoreMock{}
	accounts.On("GetByEmail", mock.Anything, "alice@x.com").Return(
		model.Account{ID: 7, Email: "alice@x.com", PasswordHash: hash}, nil)
	accounts.On("GetByID", mock.Anything, int64(7)).Return(
		model.Account{ID: 7, Email: "alice@x.com", PasswordHash: hash}, nil)

	cache := newStubCache()
	a := newTestAuth(t, accounts, cache)

	pair, err := a.Login(context.Background(), "alice@x.com", "pw12345678")
	require.NoError(t, err)

	rotated, err := a.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The superseded refresh token must be rejected on subsequent use.
	_, err = a.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrTokenMismatch)

	// The rotated token still works.
	_, err = a.Refresh(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
}

func TestAuth_Refresh_RejectsAccessToken(t *testing.T) {
	accounts := &accountStoreMock{}
	cache := newStubCache()
	a := newTestAuth(t, accounts, cache)

	pair, err := a.tokens.GeneratePair(7)
	require.NoError(t, err)
	require.NoError(t, cache.Put(context.Background(), 7, pair, time.Minute))

	_, err = a.Refresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestAuth_Refresh_NoCachedPair(t *testing.T) {
	accounts := &accountStoreMock{}
	a := newTestAuth(t, accounts, newStubCache())

	pair, err := a.tokens.GeneratePair(7)
	require.NoError(t, err)

	_, err = a.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestAuth_ResolveAccess(t *testing.T) {
	accounts := &accountStoreMock{}
	accounts.On("GetByID", mock.Anything, int64(7)).Return(model.Account{ID: 7}, nil)

	a := newTestAuth(t, accounts, newStubCache())

	pair, err := a.tokens.GeneratePair(7)
	require.NoError(t, err)

	account, err := a.ResolveAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)

	// A refresh token is never accepted where an access token is required.
	_, err = a.ResolveAccess(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestAuth_UpdateAccount(t *testing.T) {
	username := "newname"
	password := "newpass123"

	accounts := &accountStoreMock{}
	accounts.On("Update", mock.Anything, int64(7), mock.MatchedBy(func(u model.AccountUpdate) bool {
		return u.Username != nil && *u.Username == "newname" &&
			u.PasswordHash != nil && *u.PasswordHash != password
	})).Return(model.Account{ID: 7, Username: "newname"}, nil)

	a := newTestAuth(t, accounts, newStubCache())

	account, err := a.UpdateAccount(context.Background(), 7, &username, nil, &password)
	require.NoError(t, err)
	assert.Equal(t, "newname", account.Username)
	accounts.AssertExpectations(t)
}

func TestAuth_UpdateAccount_Empty(t *testing.T) {
	a := newTestAuth(t, &accountStoreMock{}, newStubCache())

	_, err := a.UpdateAccount(context.Background(), 7, nil, nil, nil)
	require.ErrorIs(t, err, model.ErrEmptyUpdate)
}

func TestAuth_UpdateAccount_Conflict(t *testing.T) {
	email := "taken@x.com"
	accounts := &accountStoreMock{}
	accounts.On("Update", mock.Anything, int64(7), mock.Anything).Return(model.Account{}, model.ErrDuplicateIdentity)

	a := newTestAuth(t, accounts, newStubCache())

	_, err := a.UpdateAccount(context.Background(), 7, nil, &email, nil)
	require.ErrorIs(t, err, model.ErrDuplicateIdentity)
}
