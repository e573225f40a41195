package importer

import (
	"errors"
	"strings"

	"user-admin/internal/domain"
)

var (
	ErrInsufficientColumns = errors.New("insufficient columns")
	ErrMissingField        = errors.New("missing name or email")
)

// Row is an accepted, normalized data row.
type Row struct {
	Name  string
	Email string
}

// ValidateRow applies the import rules in order and stops at the first
// violation: column count, presence, email shape, name length. The returned
// error is one of ErrInsufficientColumns, ErrMissingField,
// domain.ErrEmailInvalid or domain.ErrNameTooLong.
func ValidateRow(fields []string, nameIdx, emailIdx int) (Row, error) {
	if len(fields) <= max(nameIdx, emailIdx) {
		return Row{}, ErrInsufficientColumns
	}
	name := strings.TrimSpace(fields[nameIdx])
	email := strings.TrimSpace(fields[emailIdx])
	if name == "" || email == "" {
		return Row{}, ErrMissingField
	}
	if !domain.ValidEmail(email) {
		return Row{}, domain.ErrEmailInvalid
	}
	if domain.NameTooLong(name) {
		return Row{}, domain.ErrNameTooLong
	}
	return Row{Name: name, Email: domain.NormalizeEmail(email)}, nil
}
