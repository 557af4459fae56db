package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/storage/database"
)

const userColumns = `id, name, email, school_id, role, is_active, password_hash, created_at, last_login`

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	SchoolID     string `db:"school_id"`
	Role         string `db:"role"`
	IsActive     bool   `db:"is_active"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"` // unix ms
	LastLogin    int64  `db:"last_login"` // unix ms, 0 if never
}

func toRow(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		SchoolID:     usr.SchoolID,
		Role:         string(usr.Role),
		IsActive:     usr.IsActive,
		PasswordHash: string(usr.PasswordHash),
		CreatedAt:    toMillis(usr.CreatedAt),
		LastLogin:    toMillis(usr.LastLogin),
	}
	return row
}

func (row userRow) toUser() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		SchoolID:     row.SchoolID,
		Role:         user.Role(row.Role),
		IsActive:     row.IsActive,
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    fromMillis(row.CreatedAt),
		LastLogin:    fromMillis(row.LastLogin),
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano() / int64(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.Unix(0, ms*int64(time.Millisecond)).UTC()
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :school_id, :role, :is_active, :password_hash, :created_at, :last_login)`
	if _, err := repo.db.NamedExec(q, toRow(usr)); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, database.CheckConn(errors.Wrap(err, "inserting user"))
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) getBy(column, value string) (user.User, error) {
	var row userRow
	q := repo.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)
	if err := repo.db.Get(&row, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, database.CheckConn(errors.Wrapf(err, "selecting user by %s", column))
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getBy("id", id)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getBy("email", email)
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, school_id = :school_id, role = :role, is_active = :is_active,
		password_hash = :password_hash, last_login = :last_login WHERE id = :id`
	res, err := repo.db.NamedExec(q, toRow(usr))
	if err != nil {
		return user.User{}, database.CheckConn(errors.Wrap(err, "updating user"))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) SetLastLogin(id string, t time.Time) (user.User, error) {
	res, err := repo.db.Exec(repo.db.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`), toMillis(t), id)
	if err != nil {
		return user.User{}, database.CheckConn(errors.Wrap(err, "updating last_login"))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(id)
}

// isUniqueViolation matches both the sqlite and the postgres messages.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
