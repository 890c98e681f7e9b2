package persist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// User is the account row backing a session.
type User struct {
	ID           int32
	Username     string
	SafeName     string
	PasswordHash string
	Privileges   Privileges
	Country      string
	SilenceUntil *time.Time
	CreatedAt    time.Time
	LastActive   *time.Time
}

// SafeName folds a username into its canonical lookup form: case-folded,
// spaces replaced with underscores.
func SafeName(name string) string {
	return strings.ReplaceAll(cases.Fold().String(name), " ", "_")
}

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, safe_name, password_hash, privileges,
	country, silence_until, created_at, last_active`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.SafeName, &u.PasswordHash, &u.Privileges,
		&u.Country, &u.SilenceUntil, &u.CreatedAt, &u.LastActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername resolves a user by display name or safe name.
func (r *UserRepo) GetByUsername(ctx context.Context, name string) (*User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE safe_name = $1`, SafeName(name)))
}

func (r *UserRepo) GetByID(ctx context.Context, id int32) (*User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// Create registers a new account. The raw credential is the MD5 digest the
// client sends at login; only its bcrypt hash is stored.
func (r *UserRepo) Create(ctx context.Context, username, passwordMD5 string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passwordMD5), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return scanUser(r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (username, safe_name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		username, SafeName(username), string(hash)))
}

// ValidatePassword checks the client's MD5 credential against the stored hash.
func (r *UserRepo) ValidatePassword(hash, passwordMD5 string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passwordMD5)) == nil
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, id int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET last_active = NOW() WHERE id = $1`, id)
	return err
}

func (r *UserRepo) SetPrivileges(ctx context.Context, id int32, p Privileges) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET privileges = $2 WHERE id = $1`, id, p)
	return err
}

// Friends returns the ids the user has added, in id order.
func (r *UserRepo) Friends(ctx context.Context, userID int32) ([]int32, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT friend_id FROM friends WHERE user_id = $1 ORDER BY friend_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *UserRepo) AddFriend(ctx context.Context, userID, friendID int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO friends (user_id, friend_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, friendID)
	return err
}

func (r *UserRepo) RemoveFriend(ctx context.Context, userID, friendID int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM friends WHERE user_id = $1 AND friend_id = $2`, userID, friendID)
	return err
}
