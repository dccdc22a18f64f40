package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fuyanik/user-management-case/internal/database"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, first_name, last_name, email, age, password_hash, role, is_active, created_at, updated_at`

// uniqueViolation is the SQLSTATE of a unique index violation
const uniqueViolation = "23505"

// sortColumns whitelists the listing sort keys
var sortColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"age":       "age",
	"createdAt": "created_at",
}

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a single user. The id is generated here when empty.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if err := insertUser(ctx, r.db, user); err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// CreateBatch inserts all users in one READ COMMITTED transaction. Each row is
// re-checked for an existing email right before its insert; the first hit
// aborts the transaction with an *EmailConflictError and nothing is committed.
func (r *userRepo) CreateBatch(ctx context.Context, users []*models.User) ([]*models.User, error) {
	if len(users) == 0 {
		return nil, nil
	}

	err := r.db.WithTx(ctx, database.ReadCommitted, func(ctx context.Context, tx database.DBTX) error {
		for i, user := range users {
			exists, err := emailExists(ctx, tx, user.Email)
			if err != nil {
				return err
			}
			if exists {
				return &EmailConflictError{Email: user.Email, Index: i}
			}

			if err := insertUser(ctx, tx, user); err != nil {
				if isUniqueViolation(err) {
					return &EmailConflictError{Email: user.Email, Index: i}
				}
				return fmt.Errorf("insert user %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// EmailExists checks if a user with the given email exists
func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return emailExists(ctx, r.db, email)
}

// FindExistingEmails returns the lower-cased subset of emails already stored
func (r *userRepo) FindExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT LOWER(email) FROM users WHERE LOWER(email) = ANY($1)`,
		pq.Array(lowered),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		existing = append(existing, email)
	}
	return existing, rows.Err()
}

// List returns one page of users matching the filters and the total match count
func (r *userRepo) List(ctx context.Context, params models.ListUsersParams) ([]*models.User, int, error) {
	where, args := listFilter(params)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if params.SortOrder == models.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		userColumns, where, column, direction, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*models.User, 0, params.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// StreamAll streams all users for export (memory efficient)
func (r *userRepo) StreamAll(ctx context.Context, callback func(*models.User) error) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return err
		}
		if err := callback(user); err != nil {
			return err
		}
	}

	return rows.Err()
}

func listFilter(params models.ListUsersParams) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if s := strings.TrimSpace(params.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if params.MinAge != nil {
		args = append(args, *params.MinAge)
		conds = append(conds, fmt.Sprintf("age >= $%d", len(args)))
	}
	if params.MaxAge != nil {
		args = append(args, *params.MaxAge)
		conds = append(conds, fmt.Sprintf("age <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func insertUser(ctx context.Context, q database.DBTX, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Email = strings.ToLower(user.Email)

	query := `
		INSERT INTO users (id, first_name, last_name, email, age, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	return q.QueryRowContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.Age,
		user.PasswordHash, user.Role, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func emailExists(ctx context.Context, q database.DBTX, email string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))", email,
	).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Age,
		&user.PasswordHash, &user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
