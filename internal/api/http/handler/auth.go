package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"api-gateway/internal/api/http/response"
	"api-gateway/internal/logger"
	"api-gateway/internal/model"
	"api-gateway/internal/proxy"
)

const minPasswordLength = 8

// AuthService defines account registration, login and token operations.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (model.Account, error)
	Login(ctx context.Context, identifier, password string) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	UpdateAccount(ctx context.Context, accountID int64, username, email, password *string) (model.Account, error)
	GetAccount(ctx context.Context, accountID int64) (model.Account, error)
}

// Auth handles the credential endpoints. Profile fields that belong to the
// users service are forwarded there in the background after the local write
// commits.
type Auth struct {
	service        AuthService
	forwarder      Forwarder
	usersBaseURL   string
	contextManager model.ContextManager
	logger         *logger.Logger

	background sync.WaitGroup
}

// NewAuth creates a new Auth handler instance.
func NewAuth(
	service AuthService,
	forwarder Forwarder,
	usersBaseURL string,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		service:        service,
		forwarder:      forwarder,
		usersBaseURL:   usersBaseURL,
		contextManager: contextManager,
		logger:         logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`

	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`

	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`
}

type accountResponse struct {
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func newAccountResponse(account model.Account) accountResponse {
	return accountResponse{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

func newTokenResponse(pair model.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	}
}

// Register creates a new account and schedules a profile record in the users
// service when profile fields were supplied.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if msg := validateRegister(req); msg != "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, msg)
		return
	}

	account, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateIdentity) {
			response.Error(w, http.StatusBadRequest, response.CodeDuplicateIdentity, "username or email already registered")
			return
		}
		handleError(w, err)
		return
	}

	profile := profileFields{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
	}
	if !profile.empty() {
		h.forwardProfile(http.MethodPost, "users/", account.ID, profile)
	}

	response.JSON(w, http.StatusCreated, newAccountResponse(account))
}

// Login authenticates and returns the live token pair for the account.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, "username and password are required")
		return
	}

	pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, newTokenResponse(pair))
}

// RefreshToken exchanges a bearer refresh token for a fresh pair.
func (h *Auth) RefreshToken(w http.ResponseWriter, r *http.Request) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		response.Unauthenticated(w, response.CodeUnauthenticated, "refresh token required")
		return
	}

	pair, err := h.service.Refresh(r.Context(), tokenString)
	if err != nil {
		handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, newTokenResponse(pair))
}

// UpdateAccount applies a partial update for the authenticated caller.
// Credential fields are written locally; profile fields are forwarded to the
// users service after the response is committed.
func (h *Auth) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentity(r.Context())
	if !ok || !identity.Authenticated() {
		response.Unauthenticated(w, response.CodeUnauthenticated, "valid access token required")
		return
	}

	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile := profileFields{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
	}

	hasCredentialFields := req.Username != nil || req.Email != nil || req.Password != nil
	if !hasCredentialFields && profile.empty() {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, "no update data provided")
		return
	}

	if req.Password != nil && len(*req.Password) < minPasswordLength {
		response.Error(w, http.StatusBadRequest, response.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		return
	}

	var account model.Account
	var err error
	if hasCredentialFields {
		account, err = h.service.UpdateAccount(r.Context(), identity.AccountID, req.Username, req.Email, req.Password)
	} else {
		account, err = h.service.GetAccount(r.Context(), identity.AccountID)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	if !profile.empty() {
		h.forwardProfile(http.MethodPatch, fmt.Sprintf("users/account/%d", identity.AccountID), identity.AccountID, profile)
	}

	response.JSON(w, http.StatusOK, newAccountResponse(account))
}

// Drain blocks until in-flight profile forwards finish or ctx expires.
// Shutdown calls it after the listener stops, so committed account writes
// still reach the users service.
func (h *Auth) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain profile forwards: %w", ctx.Err())
	}
}

type profileFields struct {
	AccountID   int64   `json:"account_id,omitempty"`
	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

func (p profileFields) empty() bool {
	return p.Name == nil && p.PhoneNumber == nil && p.Address == nil && p.DateOfBirth == nil
}

// forwardProfile delivers profile fields to the users service without
// blocking the response. Failures are logged only; the local account write
// already committed and the gateway does not roll it back.
func (h *Auth) forwardProfile(method, subPath string, accountID int64, profile profileFields) {
	if method == http.MethodPost {
		profile.AccountID = accountID
	}

	body, err := json.Marshal(profile)
	if err != nil {
		h.logger.Error("Auth handler: failed to encode profile payload",
			"account_id", accountID,
			"error", err.Error())
		return
	}

	h.background.Add(1)
	go func() {
		defer h.background.Done()

		header := http.Header{}
		header.Set("Content-Type", "application/json")

		resp, err := h.forwarder.Forward(context.Background(), proxy.Request{
			Method:   method,
			BaseURL:  h.usersBaseURL,
			SubPath:  subPath,
			Body:     bytes.NewReader(body),
			Header:   header,
			Identity: model.Identity{AccountID: accountID},
		})
		if err != nil {
			h.logger.Error("Auth handler: profile forward failed",
				"account_id", accountID,
				"error", err.Error())
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= http.StatusBadRequest {
			h.logger.Error("Auth handler: users service rejected profile forward",
				"account_id", accountID,
				"status", resp.StatusCode)
			return
		}

		h.logger.Info("Auth handler: profile forwarded to users service",
			"account_id", accountID)
	}()
}

func validateRegister(req registerRequest) string {
	if req.Username == "" {
		return "username is required"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return "a valid email is required"
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}
	return ""
}

// decodeJSON reads the request body strictly; unknown fields are rejected so
// typos never silently drop an update. It writes the error response itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeValidation, "invalid request body")
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
