package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fuyanik/user-management-case/internal/validation"
)

// FindDuplicateEmails groups rows by lower-cased email and returns one error
// per row of every email that appears more than once. Each message lists all
// colliding rows. Emails are reported in order of first appearance.
func FindDuplicateEmails(rows []validation.ValidRow) []validation.FieldError {
	byEmail := make(map[string][]int, len(rows))
	var order []string

	for _, r := range rows {
		email := strings.ToLower(r.Email)
		if _, seen := byEmail[email]; !seen {
			order = append(order, email)
		}
		byEmail[email] = append(byEmail[email], r.Row)
	}

	var errors []validation.FieldError
	for _, email := range order {
		rowNums := byEmail[email]
		if len(rowNums) < 2 {
			continue
		}

		list := make([]string, len(rowNums))
		for i, n := range rowNums {
			list[i] = strconv.Itoa(n)
		}
		msg := fmt.Sprintf("Duplicate email %q found in rows: %s", email, strings.Join(list, ", "))

		for _, n := range rowNums {
			errors = append(errors, validation.FieldError{Row: n, Field: "email", Message: msg})
		}
	}

	return errors
}
