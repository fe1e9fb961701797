package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maendeleo/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo userRepository) row(usr user.User) userRow {
	active := true
	if usr.IsActive != nil {
		active = *usr.IsActive
	}
	return userRow{
		ID:           usr.ID,
		Name:         null.NewString(usr.Name, usr.Name != ""),
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     active,
		Roles:        pq.StringArray(usr.Roles),
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unrow(row userRow) user.User {
	active := row.IsActive
	return user.User{
		ID:           row.ID,
		Name:         row.Name.String,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     &active,
		Roles:        []string(row.Roles),
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND NOT (id = ANY ($3))`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		// a single column distinguishes which; the cheap second lookup keeps
		// the validation message precise
		var usernameTaken bool
		err := repo.db.GetContext(ctx, &usernameTaken,
			`SELECT EXISTS (SELECT 1 FROM "user" WHERE username = $1)`, username)
		if err == nil && usernameTaken && username != "" {
			return user.ErrUsernameExists
		}
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.row(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE username = $1 OR email = $1`, strings.ToLower(uname))
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM "user" ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unrow(row))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	row := repo.row(usr)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "user"
		SET name = :name, username = :username, email = :email, is_active = :is_active,
		    roles = :roles, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unrow(row), nil
}
