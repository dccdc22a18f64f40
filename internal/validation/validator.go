package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fuyanik/user-management-case/internal/models"
	emailaddress "github.com/mcnijman/go-emailaddress"
)

const (
	MaxNameLength     = 100
	MaxEmailLength    = 255
	MinAge            = 1
	MaxAge            = 150
	MinPasswordLength = 6
	MaxPasswordLength = 100

	// Sign-in only. The seeded admin password is four characters.
	MinLoginPasswordLength = 4
)

// Names on the single-create path: Latin letters, the Turkish alphabet and spaces.
var nameRegex = regexp.MustCompile(`^[a-zA-ZğüşıöçĞÜŞİÖÇ\s]+$`)

// FieldError represents a single validation error. Row is the spreadsheet row
// number and is zero for errors that are not tied to a row.
type FieldError struct {
	Row     int    `json:"row,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RowInput is a coerced spreadsheet row waiting for validation.
// Age holds the numeric value when AgeRaw could be parsed as a number.
type RowInput struct {
	FirstName string
	LastName  string
	Email     string
	AgeRaw    string
	Age       *float64
	Password  string
}

// ValidRow is a row that passed every check. Email is lower-cased.
type ValidRow struct {
	Row       int
	FirstName string
	LastName  string
	Email     string
	Age       int
	Password  string
}

// ValidateRow validates one spreadsheet row. Every field is checked and all
// failures are returned; on failure the ValidRow is nil.
func ValidateRow(in RowInput, row int) (*ValidRow, []FieldError) {
	var errors []FieldError

	errors = append(errors, validateName("firstName", "First name", in.FirstName, false)...)
	errors = append(errors, validateName("lastName", "Last name", in.LastName, false)...)
	errors = append(errors, validateEmail(in.Email)...)

	age, ageErrs := validateAge(in.AgeRaw, in.Age)
	errors = append(errors, ageErrs...)
	errors = append(errors, validatePassword(in.Password)...)

	if len(errors) > 0 {
		for i := range errors {
			errors[i].Row = row
		}
		return nil, errors
	}

	return &ValidRow{
		Row:       row,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     NormalizeEmail(in.Email),
		Age:       age,
		Password:  in.Password,
	}, nil
}

// ValidateCreateUser validates the single-create request. Unlike ValidateRow
// it restricts names to letters and spaces.
func ValidateCreateUser(req *models.CreateUserRequest) []FieldError {
	var errors []FieldError

	errors = append(errors, validateName("firstName", "First name", req.FirstName, true)...)
	errors = append(errors, validateName("lastName", "Last name", req.LastName, true)...)
	errors = append(errors, validateEmail(req.Email)...)

	if req.Age == nil {
		errors = append(errors, FieldError{Field: "age", Message: "Age is required"})
	} else if *req.Age < MinAge {
		errors = append(errors, FieldError{Field: "age", Message: fmt.Sprintf("Age must be at least %d", MinAge)})
	} else if *req.Age > MaxAge {
		errors = append(errors, FieldError{Field: "age", Message: fmt.Sprintf("Age must be at most %d", MaxAge)})
	}

	errors = append(errors, validatePassword(req.Password)...)
	return errors
}

// ValidateLogin validates login credentials
func ValidateLogin(req *models.LoginRequest) []FieldError {
	var errors []FieldError

	if strings.TrimSpace(req.Email) == "" {
		errors = append(errors, FieldError{Field: "email", Message: "Email is required"})
	} else if !IsValidEmail(req.Email) {
		errors = append(errors, FieldError{Field: "email", Message: "Invalid email format"})
	}

	if req.Password == "" {
		errors = append(errors, FieldError{Field: "password", Message: "Password is required"})
	} else if utf8.RuneCountInString(req.Password) < MinLoginPasswordLength {
		errors = append(errors, FieldError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", MinLoginPasswordLength)})
	}

	return errors
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether s is a syntactically valid address
func IsValidEmail(s string) bool {
	addr, err := emailaddress.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return strings.Contains(addr.Domain, ".")
}

func validateName(field, label, value string, lettersOnly bool) []FieldError {
	value = strings.TrimSpace(value)

	if value == "" {
		return []FieldError{{Field: field, Message: label + " is required"}}
	} else if utf8.RuneCountInString(value) > MaxNameLength {
		return []FieldError{{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", label, MaxNameLength)}}
	} else if lettersOnly && !nameRegex.MatchString(value) {
		return []FieldError{{Field: field, Message: label + " can only contain letters"}}
	}
	return nil
}

func validateEmail(value string) []FieldError {
	value = strings.TrimSpace(value)

	if value == "" {
		return []FieldError{{Field: "email", Message: "Email is required"}}
	} else if !IsValidEmail(value) {
		return []FieldError{{Field: "email", Message: "Invalid email format"}}
	} else if utf8.RuneCountInString(value) > MaxEmailLength {
		return []FieldError{{Field: "email", Message: fmt.Sprintf("Email must be at most %d characters", MaxEmailLength)}}
	}
	return nil
}

func validateAge(raw string, num *float64) (int, []FieldError) {
	if num == nil {
		if strings.TrimSpace(raw) == "" {
			return 0, []FieldError{{Field: "age", Message: "Age is required"}}
		}
		return 0, []FieldError{{Field: "age", Message: "Age must be a number"}}
	}

	v := *num
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, []FieldError{{Field: "age", Message: "Age must be a number"}}
	} else if v != math.Trunc(v) {
		return 0, []FieldError{{Field: "age", Message: "Age must be an integer"}}
	} else if v < MinAge {
		return 0, []FieldError{{Field: "age", Message: fmt.Sprintf("Age must be at least %d", MinAge)}}
	} else if v > MaxAge {
		return 0, []FieldError{{Field: "age", Message: fmt.Sprintf("Age must be at most %d", MaxAge)}}
	}
	return int(v), nil
}

func validatePassword(value string) []FieldError {
	n := utf8.RuneCountInString(value)

	if value == "" {
		return []FieldError{{Field: "password", Message: "Password is required"}}
	} else if n < MinPasswordLength {
		return []FieldError{{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}}
	} else if n > MaxPasswordLength {
		return []FieldError{{Field: "password", Message: fmt.Sprintf("Password must be at most %d characters", MaxPasswordLength)}}
	}
	return nil
}
