package importer

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a canonical user field a spreadsheet column can map to
type Field string

const (
	FieldNone      Field = ""
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldAge       Field = "age"
	FieldPassword  Field = "password"
)

// RequiredFields must each be mapped by at least one header
var RequiredFields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldAge}

// headerAliases maps lower-cased header spellings to canonical fields.
// Never written after init.
var headerAliases = map[string]Field{
	"firstname":  FieldFirstName,
	"first_name": FieldFirstName,
	"first name": FieldFirstName,
	"ad":         FieldFirstName,
	"lastname":   FieldLastName,
	"last_name":  FieldLastName,
	"last name":  FieldLastName,
	"soyad":      FieldLastName,
	"email":      FieldEmail,
	"e-mail":     FieldEmail,
	"eposta":     FieldEmail,
	"e-posta":    FieldEmail,
	"age":        FieldAge,
	"yaş":        FieldAge,
	"yas":        FieldAge,
	"password":   FieldPassword,
	"şifre":      FieldPassword,
	"sifre":      FieldPassword,
}

// foldedAliases is headerAliases keyed by the diacritic-free spelling
var foldedAliases = func() map[string]Field {
	m := make(map[string]Field, len(headerAliases))
	for alias, field := range headerAliases {
		m[foldHeader(alias)] = field
	}
	return m
}()

var dotlessI = strings.NewReplacer("ı", "i")

// foldHeader strips combining marks so "ŞİFRE", "Şifre" and "sifre" compare equal
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return dotlessI.Replace(folded)
}

// NormalizeHeader maps a raw header to its canonical field, or FieldNone
func NormalizeHeader(header string) Field {
	key := strings.ToLower(strings.TrimSpace(header))
	if key == "" {
		return FieldNone
	}
	if f, ok := headerAliases[key]; ok {
		return f
	}
	return foldedAliases[foldHeader(key)]
}

// HeaderMapping holds the canonical field of every column, by column index
type HeaderMapping []Field

// Has reports whether some column maps to f
func (m HeaderMapping) Has(f Field) bool {
	for _, mapped := range m {
		if mapped == f {
			return true
		}
	}
	return false
}

// MapHeaders maps every header and fails when a required field has no column.
// A missing password column is not an error here; the validator reports it per row.
func MapHeaders(headers []string) (HeaderMapping, error) {
	mapping := make(HeaderMapping, len(headers))
	for i, h := range headers {
		mapping[i] = NormalizeHeader(h)
	}

	var missing []string
	for _, f := range RequiredFields {
		if !mapping.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf("Missing required columns: %s. Expected columns: firstName, lastName, email, age, password",
			strings.Join(missing, ", "))
		return nil, structuralError(msg, nil)
	}

	return mapping, nil
}
