package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/fuyanik/user-management-case/internal/repository"
	"github.com/google/uuid"
)

// MockUserRepository is an in-memory UserRepository. CreateBatch keeps the
// all-or-nothing behaviour of the real store: a conflicting row leaves the
// repository unchanged.
type MockUserRepository struct {
	mu sync.Mutex

	Users   map[string]*models.User
	byEmail map[string]*models.User

	InsertError      error
	FindError        error
	GetError         error
	CreateBatchCalls int

	// BeforeCreateBatch runs inside CreateBatch before the re-check, standing
	// in for a concurrent writer.
	BeforeCreateBatch func(m *MockUserRepository)
	CreateBatchFunc   func(ctx context.Context, users []*models.User) ([]*models.User, error)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:   make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

// Seed stores users directly, bypassing error hooks
func (m *MockUserRepository) Seed(users ...*models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		m.store(u)
	}
}

func (m *MockUserRepository) store(u *models.User) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Email = strings.ToLower(u.Email)
	m.Users[u.ID] = u
	m.byEmail[u.Email] = u
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil {
		return m.InsertError
	}
	if _, ok := m.byEmail[strings.ToLower(user.Email)]; ok {
		return repository.ErrEmailExists
	}
	m.store(user)
	return nil
}

func (m *MockUserRepository) CreateBatch(ctx context.Context, users []*models.User) ([]*models.User, error) {
	m.mu.Lock()
	m.CreateBatchCalls++
	hook := m.BeforeCreateBatch
	m.mu.Unlock()

	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, users)
	}
	if hook != nil {
		hook(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil {
		return nil, m.InsertError
	}
	for i, u := range users {
		if _, ok := m.byEmail[strings.ToLower(u.Email)]; ok {
			return nil, &repository.EmailConflictError{Email: u.Email, Index: i}
		}
	}
	for _, u := range users {
		m.store(u)
	}
	return users, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.byEmail[strings.ToLower(email)]
	return exists, nil
}

func (m *MockUserRepository) FindExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FindError != nil {
		return nil, m.FindError
	}
	var existing []string
	for _, e := range emails {
		if _, ok := m.byEmail[strings.ToLower(e)]; ok {
			existing = append(existing, strings.ToLower(e))
		}
	}
	return existing, nil
}

// List filters by search and age, sorts by creation time and pages
func (m *MockUserRepository) List(ctx context.Context, params models.ListUsersParams) ([]*models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(params.Search))
	var matched []*models.User
	for _, u := range m.Users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(u.Email, search) {
			continue
		}
		if params.MinAge != nil && u.Age < *params.MinAge {
			continue
		}
		if params.MaxAge != nil && u.Age > *params.MaxAge {
			continue
		}
		matched = append(matched, u)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Email < matched[j].Email
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	from := params.Offset()
	if from > total {
		from = total
	}
	to := from + params.Limit
	if to > total {
		to = total
	}
	return matched[from:to], total, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Users), nil
}

func (m *MockUserRepository) StreamAll(ctx context.Context, callback func(*models.User) error) error {
	users, _, _ := m.List(ctx, models.ListUsersParams{Page: 1, Limit: 1 << 30})
	for _, u := range users {
		if err := callback(u); err != nil {
			return err
		}
	}
	return nil
}

// MockImportRepository is an in-memory ImportRepository
type MockImportRepository struct {
	mu sync.Mutex

	Imports     map[string]*models.Import
	Errors      map[string][]models.ImportError
	CreateError error
}

func NewMockImportRepository() *MockImportRepository {
	return &MockImportRepository{
		Imports: make(map[string]*models.Import),
		Errors:  make(map[string][]models.ImportError),
	}
}

func (m *MockImportRepository) Create(ctx context.Context, imp *models.Import) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return m.CreateError
	}
	imp.CreatedAt = time.Now()
	m.Imports[imp.ID] = imp
	return nil
}

func (m *MockImportRepository) GetByID(ctx context.Context, id string) (*models.Import, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	imp, ok := m.Imports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return imp, nil
}

func (m *MockImportRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Import, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *models.Import
	for _, imp := range m.Imports {
		if imp.IdempotencyKey != key {
			continue
		}
		if imp.Status == models.ImportStatusCompleted {
			return imp, nil
		}
		if found == nil || imp.CreatedAt.After(found.CreatedAt) {
			found = imp
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (m *MockImportRepository) AddErrors(ctx context.Context, importID string, errs []models.ImportError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[importID] = append(m.Errors[importID], errs...)
	return nil
}

func (m *MockImportRepository) GetErrors(ctx context.Context, importID string, limit int) ([]models.ImportError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	errs := m.Errors[importID]
	if limit > 0 && len(errs) > limit {
		errs = errs[:limit]
	}
	return errs, nil
}

// MockHasher returns a reversible stand-in for a password hash
type MockHasher struct {
	Err   error
	Calls int
}

func (h *MockHasher) Hash(password string) (string, error) {
	h.Calls++
	if h.Err != nil {
		return "", h.Err
	}
	return "hashed:" + password, nil
}

func (h *MockHasher) Verify(hash, password string) bool {
	return hash == "hashed:"+password
}
