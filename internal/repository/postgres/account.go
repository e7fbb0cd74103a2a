package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"api-gateway/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const uniqueViolation = "23505"

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

const accountColumns = `account_id, username, email, hashed_password, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (username, email, hashed_password)
			  VALUES ($1, $2, $3)
			  RETURNING ` + accountColumns

	var saved model.Account
	err := r.db.QueryRow(ctx, query,
		account.Username, account.Email, account.PasswordHash,
	).Scan(
		&saved.ID, &saved.Username, &saved.Email, &saved.PasswordHash,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrDuplicateIdentity
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return r.getOne(ctx, query, username)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`
	return r.getOne(ctx, query, id)
}

// Update applies a partial mutation inside a single statement so uniqueness
// checks and the write cannot interleave with a concurrent registration.
func (r *AccountRepository) Update(ctx context.Context, id int64, update model.AccountUpdate) (model.Account, error) {
	if update.Empty() {
		return model.Account{}, model.ErrEmptyUpdate
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if update.Username != nil {
		args = append(args, *update.Username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if update.Email != nil {
		args = append(args, *update.Email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if update.PasswordHash != nil {
		args = append(args, *update.PasswordHash)
		sets = append(sets, fmt.Sprintf("hashed_password = $%d", len(args)))
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE account_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), accountColumns)

	var saved model.Account
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&saved.ID, &saved.Username, &saved.Email, &saved.PasswordHash,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrDuplicateIdentity
		}
		return model.Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg any) (model.Account, error) {
	var account model.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
