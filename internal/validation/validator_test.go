package validation

import (
	"strings"
	"testing"

	"github.com/fuyanik/user-management-case/internal/models"
	"github.com/google/go-cmp/cmp"
)

func num(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func validInput() RowInput {
	return RowInput{
		FirstName: "Ayşe",
		LastName:  "Yılmaz",
		Email:     "ayse@example.com",
		AgeRaw:    "28",
		Age:       num(28),
		Password:  "secret123",
	}
}

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(in *RowInput)
		wantFields []string
		wantMsg    string
	}{
		{
			name:   "valid row",
			mutate: func(in *RowInput) {},
		},
		{
			name:       "missing first name",
			mutate:     func(in *RowInput) { in.FirstName = "   " },
			wantFields: []string{"firstName"},
			wantMsg:    "First name is required",
		},
		{
			name:       "last name too long",
			mutate:     func(in *RowInput) { in.LastName = strings.Repeat("a", 101) },
			wantFields: []string{"lastName"},
			wantMsg:    "Last name must be at most 100 characters",
		},
		{
			name:   "name with digits is allowed on import",
			mutate: func(in *RowInput) { in.FirstName = "R2D2" },
		},
		{
			name:   "multibyte name at the length limit",
			mutate: func(in *RowInput) { in.FirstName = strings.Repeat("ş", 100) },
		},
		{
			name:       "invalid email",
			mutate:     func(in *RowInput) { in.Email = "not-an-email" },
			wantFields: []string{"email"},
			wantMsg:    "Invalid email format",
		},
		{
			name:       "email without top level domain",
			mutate:     func(in *RowInput) { in.Email = "user@localhost" },
			wantFields: []string{"email"},
			wantMsg:    "Invalid email format",
		},
		{
			name:       "email too long",
			mutate:     func(in *RowInput) { in.Email = strings.Repeat("a", 250) + "@example.com" },
			wantFields: []string{"email"},
		},
		{
			name:       "age above upper bound",
			mutate:     func(in *RowInput) { in.AgeRaw, in.Age = "200", num(200) },
			wantFields: []string{"age"},
			wantMsg:    "Age must be at most 150",
		},
		{
			name:       "negative age",
			mutate:     func(in *RowInput) { in.AgeRaw, in.Age = "-5", num(-5) },
			wantFields: []string{"age"},
			wantMsg:    "Age must be at least 1",
		},
		{
			name:       "fractional age",
			mutate:     func(in *RowInput) { in.AgeRaw, in.Age = "25.5", num(25.5) },
			wantFields: []string{"age"},
			wantMsg:    "Age must be an integer",
		},
		{
			name:       "non numeric age",
			mutate:     func(in *RowInput) { in.AgeRaw, in.Age = "twenty", nil },
			wantFields: []string{"age"},
			wantMsg:    "Age must be a number",
		},
		{
			name:       "empty age",
			mutate:     func(in *RowInput) { in.AgeRaw, in.Age = "", nil },
			wantFields: []string{"age"},
			wantMsg:    "Age is required",
		},
		{
			name:       "short password",
			mutate:     func(in *RowInput) { in.Password = "123" },
			wantFields: []string{"password"},
			wantMsg:    "Password must be at least 6 characters",
		},
		{
			name:       "empty password",
			mutate:     func(in *RowInput) { in.Password = "" },
			wantFields: []string{"password"},
			wantMsg:    "Password is required",
		},
		{
			name:       "password too long",
			mutate:     func(in *RowInput) { in.Password = strings.Repeat("p", 101) },
			wantFields: []string{"password"},
		},
		{
			name: "every field invalid",
			mutate: func(in *RowInput) {
				*in = RowInput{AgeRaw: "abc"}
			},
			wantFields: []string{"firstName", "lastName", "email", "age", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			valid, errs := ValidateRow(in, 7)

			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
				if e.Row != 7 {
					t.Errorf("error %q has row %d, want 7", e.Message, e.Row)
				}
			}
			if diff := cmp.Diff(tt.wantFields, fields); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
			if tt.wantMsg != "" && errs[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Message, tt.wantMsg)
			}
			if len(tt.wantFields) == 0 && valid == nil {
				t.Fatal("expected a validated row")
			}
			if len(tt.wantFields) > 0 && valid != nil {
				t.Fatal("expected no validated row on failure")
			}
		})
	}
}

func TestValidateRow_NormalizesOutput(t *testing.T) {
	in := validInput()
	in.FirstName = "  Mehmet "
	in.Email = "  Mehmet.Kaya@Example.COM "

	valid, errs := ValidateRow(in, 2)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := &ValidRow{
		Row:       2,
		FirstName: "Mehmet",
		LastName:  "Yılmaz",
		Email:     "mehmet.kaya@example.com",
		Age:       28,
		Password:  "secret123",
	}
	if diff := cmp.Diff(want, valid); diff != "" {
		t.Errorf("validated row mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCreateUser(t *testing.T) {
	base := func() *models.CreateUserRequest {
		return &models.CreateUserRequest{
			FirstName: "Çağrı",
			LastName:  "Öztürk",
			Email:     "cagri@example.com",
			Age:       intPtr(30),
			Password:  "secret123",
		}
	}

	tests := []struct {
		name       string
		mutate     func(r *models.CreateUserRequest)
		wantFields []string
	}{
		{name: "valid request", mutate: func(r *models.CreateUserRequest) {}},
		{name: "digits in name rejected", mutate: func(r *models.CreateUserRequest) { r.FirstName = "R2D2" }, wantFields: []string{"firstName"}},
		{name: "missing age", mutate: func(r *models.CreateUserRequest) { r.Age = nil }, wantFields: []string{"age"}},
		{name: "age zero", mutate: func(r *models.CreateUserRequest) { r.Age = intPtr(0) }, wantFields: []string{"age"}},
		{name: "age too high", mutate: func(r *models.CreateUserRequest) { r.Age = intPtr(151) }, wantFields: []string{"age"}},
		{name: "short password", mutate: func(r *models.CreateUserRequest) { r.Password = "abc" }, wantFields: []string{"password"}},
		{name: "bad email and last name", mutate: func(r *models.CreateUserRequest) { r.Email = "x@"; r.LastName = "" }, wantFields: []string{"lastName", "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)

			var fields []string
			for _, e := range ValidateCreateUser(req) {
				fields = append(fields, e.Field)
				if e.Row != 0 {
					t.Errorf("create errors should not carry a row, got %d", e.Row)
				}
			}
			if diff := cmp.Diff(tt.wantFields, fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		req      models.LoginRequest
		wantErrs int
	}{
		{name: "valid", req: models.LoginRequest{Email: "admin@admin.com", Password: "admin"}},
		{name: "missing both", req: models.LoginRequest{}, wantErrs: 2},
		{name: "bad email", req: models.LoginRequest{Email: "admin", Password: "admin"}, wantErrs: 1},
		{name: "short password", req: models.LoginRequest{Email: "admin@admin.com", Password: "abc"}, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateLogin(&tt.req)
			if len(errs) != tt.wantErrs {
				t.Errorf("got %d errors (%v), want %d", len(errs), errs, tt.wantErrs)
			}
		})
	}
}

func TestFieldError_Error(t *testing.T) {
	if got := (FieldError{Row: 4, Field: "email", Message: "Email is required"}).Error(); got != "row 4: email: Email is required" {
		t.Errorf("unexpected message %q", got)
	}
	if got := (FieldError{Field: "file", Message: "empty"}).Error(); got != "file: empty" {
		t.Errorf("unexpected message %q", got)
	}
}
