// Package identity manages sign-in accounts: creation, removal, metadata and
// password authentication. Profiles live in the store package and share the account id.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const uniqueViolation = "23505"

type Account struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	EmailConfirmed bool           `json:"email_confirmed"`
	Metadata       map[string]any `json:"user_metadata"`
	CreatedAt      time.Time      `json:"created_at"`
}

type NewAccount struct {
	Email     string
	Password  string
	Confirmed bool
	Metadata  map[string]any
}

type Service struct {
	db   store.DB
	cost int
}

func NewService(db store.DB) *Service {
	return &Service{db: db, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	return json.Marshal(m)
}

func (s *Service) CreateAccount(ctx context.Context, in NewAccount) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	meta, err := encodeMetadata(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO auth_users (id, email, password_hash, email_confirmed, user_metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, email, email_confirmed, user_metadata, created_at
	`, uuid.New(), normalizeEmail(in.Email), string(hash), in.Confirmed, meta)

	a, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &a, nil
}

func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, email, email_confirmed, user_metadata, created_at
		FROM auth_users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateMetadata merges the given keys into the stored metadata.
func (s *Service) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error {
	meta, err := encodeMetadata(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE auth_users
		SET user_metadata = user_metadata || $2::jsonb
		WHERE id = $1
	`, id, meta)
	if err != nil {
		return fmt.Errorf("update account metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Authenticate checks the password and returns the account. Unknown email and wrong
// password produce the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	var (
		a    Account
		hash string
		meta []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, email, email_confirmed, user_metadata, created_at, password_hash
		FROM auth_users
		WHERE email = $1
	`, normalizeEmail(email)).Scan(&a.ID, &a.Email, &a.EmailConfirmed, &meta, &a.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := decodeMetadata(meta, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a    Account
		meta []byte
	)
	if err := row.Scan(&a.ID, &a.Email, &a.EmailConfirmed, &meta, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	if err := decodeMetadata(meta, &a); err != nil {
		return Account{}, err
	}
	return a, nil
}

func decodeMetadata(raw []byte, a *Account) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &a.Metadata); err != nil {
		return fmt.Errorf("decode account metadata: %w", err)
	}
	return nil
}
