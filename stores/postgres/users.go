package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/stores"
	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

type userRow struct {
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Requires2FA  bool   `db:"requires_2fa"`
}

// UserStore persists users in the users table.
type UserStore struct {
	db       *sqlx.DB
	ids      *snowflake.Node
	verifier stores.PasswordVerifier
}

// NewUserStore binds the store to db. nodeID identifies this process in
// generated row ids and must be unique per running instance (0..1023).
func NewUserStore(db *sqlx.DB, verifier stores.PasswordVerifier, nodeID int64) (*UserStore, error) {
	if verifier == nil {
		return nil, errors.New("password verifier required")
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	return &UserStore{db: db, ids: node, verifier: verifier}, nil
}

func (s *UserStore) AddUser(ctx context.Context, user account.User) error {
	const q = `INSERT INTO users (id, email, password_hash, requires_2fa) VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, q, s.ids.Generate().Int64(), user.Email.String(), user.PasswordHash, user.Requires2FA)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return stores.ErrUserAlreadyExists
		}
		return fmt.Errorf("%w: db error: %v", stores.ErrUnexpected, err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, email account.Email) (account.User, error) {
	const q = `SELECT email, password_hash, requires_2fa FROM users WHERE email = $1`

	var row userRow
	if err := s.db.GetContext(ctx, &row, q, email.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.User{}, stores.ErrUserNotFound
		}
		return account.User{}, fmt.Errorf("%w: db error: %v", stores.ErrUnexpected, err)
	}

	stored, err := account.ParseEmail(row.Email)
	if err != nil {
		return account.User{}, fmt.Errorf("%w: stored email %q: %v", stores.ErrUnexpected, row.Email, err)
	}
	return account.NewUser(stored, row.PasswordHash, row.Requires2FA), nil
}

func (s *UserStore) ValidateUser(ctx context.Context, email account.Email, password account.Password) error {
	if s.verifier == nil {
		return fmt.Errorf("%w: no password verifier configured", stores.ErrUnexpected)
	}
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}
	ok, err := s.verifier.Verify(password.Expose(), user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	if !ok {
		return stores.ErrInvalidCredentials
	}
	return nil
}
