// Package export renders users as CSV and optionally archives the file in an
// S3-compatible bucket.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"user-admin/internal/domain"
)

var Header = []string{"id", "name", "email", "createdAt", "updatedAt"}

const (
	FileName    = "users.csv"
	ContentType = "text/csv; charset=utf-8"
)

// WriteCSV writes the header and one record per user in the given order.
// Timestamps are RFC 3339 in UTC.
func WriteCSV(w io.Writer, users []domain.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, u := range users {
		rec := []string{
			strconv.FormatUint(uint64(u.ID), 10),
			u.Name,
			u.Email,
			u.CreatedAt.UTC().Format(time.RFC3339),
			u.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
