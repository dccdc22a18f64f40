package importer

import (
	"strconv"
	"strings"

	"github.com/fuyanik/user-management-case/internal/validation"
)

// CoerceRow copies the mapped cells of one row into their canonical fields.
// Unmapped columns are dropped. When two columns map to the same field the
// rightmost wins. Age is parsed as a number; unparseable text is kept in
// AgeRaw so the validator can report it.
func CoerceRow(cells []string, mapping HeaderMapping) validation.RowInput {
	var in validation.RowInput

	for i, field := range mapping {
		if field == FieldNone {
			continue
		}

		var value string
		if i < len(cells) {
			value = cells[i]
		}

		switch field {
		case FieldFirstName:
			in.FirstName = strings.TrimSpace(value)
		case FieldLastName:
			in.LastName = strings.TrimSpace(value)
		case FieldEmail:
			in.Email = strings.TrimSpace(value)
		case FieldPassword:
			in.Password = strings.TrimSpace(value)
		case FieldAge:
			in.AgeRaw = value
			in.Age = parseNumber(value)
		}
	}

	return in
}

// parseNumber returns nil for blank or non-numeric input
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
