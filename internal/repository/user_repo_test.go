package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fuyanik/user-management-case/internal/database"
	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	existsQuery = regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))")
	insertQuery = regexp.QuoteMeta("INSERT INTO users (id, first_name, last_name, email, age, password_hash, role, is_active)")
)

func newTestDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return database.Wrap(sqlDB, zerolog.Nop()), mock
}

func testUsers() []*models.User {
	return []*models.User{
		{FirstName: "Ali", LastName: "Veli", Email: "Ali@Example.com", Age: 30, PasswordHash: "h1", IsActive: true},
		{FirstName: "Ayşe", LastName: "Kara", Email: "ayse@example.com", Age: 25, PasswordHash: "h2", IsActive: true},
	}
}

func timestamps() *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now)
}

func TestCreateBatch_CommitsAllRows(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(existsQuery).WithArgs("ali@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(insertQuery).WillReturnRows(timestamps())
	mock.ExpectQuery(existsQuery).WithArgs("ayse@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(insertQuery).WillReturnRows(timestamps())
	mock.ExpectCommit()

	users := testUsers()
	users[0].Email = "ali@example.com"

	created, err := repo.CreateBatch(context.Background(), users)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.NotEmpty(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Equal(t, models.RoleUser, created[0].Role)
	assert.False(t, created[1].CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatch_RaceConflictRollsBack(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(existsQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(insertQuery).WillReturnRows(timestamps())
	mock.ExpectQuery(existsQuery).WithArgs("ayse@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	created, err := repo.CreateBatch(context.Background(), testUsers())
	require.Error(t, err)
	assert.Nil(t, created)

	var conflict *EmailConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 1, conflict.Index)
	assert.Equal(t, "ayse@example.com", conflict.Email)
	assert.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatch_UniqueViolationIsConflict(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(existsQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(insertQuery).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), testUsers())

	var conflict *EmailConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 0, conflict.Index)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatch_InsertFailureRollsBack(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(existsQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), testUsers())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(insertQuery).WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), testUsers()[0])
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestFindExistingEmails(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT LOWER(email) FROM users WHERE LOWER(email) = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("taken@example.com"))

	existing, err := repo.FindExistingEmails(context.Background(), []string{"Taken@Example.com", "free@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"taken@example.com"}, existing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindExistingEmails_EmptyInput(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	existing, err := repo.FindExistingEmails(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)
	id := "9b2f6d3c-1a4e-4c8b-9d7f-0e1a2b3c4d5e"
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "age", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow(id, "Ali", "Veli", "ali@example.com", 30, "hash", "ADMIN", true, now, now))

	user, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ali", user.FirstName)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.IsAdmin())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)
	id := "9b2f6d3c-1a4e-4c8b-9d7f-0e1a2b3c4d5e"

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_BuildsFilters(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	minAge, maxAge := 20, 40
	params := models.ListUsersParams{
		Page:      2,
		Limit:     10,
		Search:    "50%_off",
		MinAge:    &minAge,
		MaxAge:    &maxAge,
		SortBy:    "lastName",
		SortOrder: models.SortAsc,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE (first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1) AND age >= $2 AND age <= $3")).
		WithArgs(`%50\%\_off%`, 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY last_name ASC, id LIMIT $4 OFFSET $5")).
		WithArgs(`%50\%\_off%`, 20, 40, 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "age", "password_hash", "role", "is_active", "created_at", "updated_at",
		}).AddRow("id-11", "Ali", "Veli", "ali@example.com", 30, "hash", "USER", true, time.Now(), time.Now()))

	users, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.Len(t, users, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_UnknownSortFallsBackToCreatedAt(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id LIMIT $1 OFFSET $2")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	users, total, err := repo.List(context.Background(), models.ListUsersParams{
		Page: 1, Limit: 10, SortBy: "password_hash; DROP TABLE users",
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}
