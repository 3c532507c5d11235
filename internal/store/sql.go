package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/userdir/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported SQL dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const userColumns = "id, name, surname, email, password_hash, created_at, updated_at"

// SQLUserRepository implements UserRepository over database/sql.
type SQLUserRepository struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// NewSQLUserRepository creates a repository for the given dialect.
func NewSQLUserRepository(db *sql.DB, dialect string) (*SQLUserRepository, error) {
	if err := checkDialect(dialect); err != nil {
		return nil, err
	}
	return &SQLUserRepository{db: db, dialect: dialect, now: time.Now}, nil
}

// rebind rewrites ? placeholders into $n for postgres.
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLUserRepository) rebind(query string) string {
	return rebind(r.dialect, query)
}

// scanUser is a helper to scan a user from a row or rows object.
func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	var surname sql.NullString
	if err := scanner.Scan(&u.ID, &u.Name, &surname, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return models.User{}, err
	}
	if surname.Valid {
		s := surname.String
		u.Surname = &s
	}
	return u, nil
}

// FindAll retrieves every user ordered by id.
func (r *SQLUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// FindByID retrieves a single user by id.
func (r *SQLUserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	return r.one(row)
}

// FindByEmail retrieves a single user by email, compared exactly as stored.
func (r *SQLUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT "+userColumns+" FROM users WHERE email = ?"), email)
	return r.one(row)
}

func (r *SQLUserRepository) one(row *sql.Row) (models.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// Insert writes a new user and fills in its generated id.
func (r *SQLUserRepository) Insert(ctx context.Context, u *models.User) error {
	now := r.now().UTC()
	query := r.rebind(`INSERT INTO users (name, surname, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := r.db.QueryRowContext(ctx, query, u.Name, u.Surname, u.Email, u.PasswordHash, now, now).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// Save overwrites the mutable columns of an existing user.
func (r *SQLUserRepository) Save(ctx context.Context, u *models.User) error {
	now := r.now().UTC()
	query := r.rebind(`UPDATE users SET name = ?, surname = ?, email = ?, password_hash = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, u.Name, u.Surname, u.Email, u.PasswordHash, now, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if err := affectedOne(res); err != nil {
		return err
	}
	u.UpdatedAt = now
	return nil
}

// Remove deletes a user by id.
func (r *SQLUserRepository) Remove(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affectedOne(res)
}

// Close releases the underlying connection pool.
func (r *SQLUserRepository) Close() error {
	return r.db.Close()
}

func checkDialect(dialect string) error {
	switch dialect {
	case DialectSQLite, DialectPostgres:
		return nil
	}
	return fmt.Errorf("unsupported dialect %q", dialect)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation detects a unique constraint failure from either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}

var _ UserRepository = (*SQLUserRepository)(nil)
