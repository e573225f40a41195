// Package importer turns CSV text into users. Every data line is handled on
// its own: a rejected or failed line is counted and the rest of the file still
// runs. Rows are written one at a time and committed rows are never rolled back.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"user-admin/internal/domain"
)

// MaxReasons bounds the reasons kept on a Summary.
const MaxReasons = 10

type Status string

const (
	StatusEmptyFile        Status = "empty-file"
	StatusInsufficientData Status = "insufficient-data"
	StatusMissingColumns   Status = "missing-columns"
	StatusSuccess          Status = "success"
	StatusPartialSuccess   Status = "partial-success"
	StatusNoNewUsers       Status = "no-new-users"
)

// Processed reports whether rows were iterated. The structural statuses abort
// before any row is read.
func (s Status) Processed() bool {
	switch s {
	case StatusSuccess, StatusPartialSuccess, StatusNoNewUsers:
		return true
	}
	return false
}

type OutcomeKind int

const (
	Imported OutcomeKind = iota
	SkippedDuplicate
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Imported:
		return "imported"
	case SkippedDuplicate:
		return "skipped-duplicate"
	default:
		return "error"
	}
}

// Outcome is the result of one data line. Line is 1-based against the
// uploaded text, header included.
type Outcome struct {
	Line   int
	Kind   OutcomeKind
	Reason string
}

type Summary struct {
	Status         Status   `json:"status"`
	Imported       int      `json:"imported"`
	Skipped        int      `json:"skipped"`
	Errors         int      `json:"errors"`
	Reasons        []string `json:"-"`
	DroppedReasons int      `json:"-"`
}

func (s *Summary) record(o Outcome) {
	switch o.Kind {
	case Imported:
		s.Imported++
		return
	case SkippedDuplicate:
		s.Skipped++
	default:
		s.Errors++
	}
	if len(s.Reasons) < MaxReasons {
		s.Reasons = append(s.Reasons, fmt.Sprintf("Line %d: %s", o.Line, o.Reason))
	} else {
		s.DroppedReasons++
	}
}

func (s *Summary) finish() {
	switch {
	case s.Imported > 0:
		s.Status = StatusSuccess
	case s.Errors > 0:
		s.Status = StatusPartialSuccess
	default:
		s.Status = StatusNoNewUsers
	}
}

// UserCreator persists one user. A uniqueness violation must be reported as
// domain.ErrDuplicateEmail.
type UserCreator interface {
	Create(ctx context.Context, u *domain.User) error
}

type Importer struct {
	users UserCreator
	log   *zap.Logger
}

func New(users UserCreator, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{users: users, log: log}
}

type line struct {
	num  int
	text string
}

// Import runs the whole text through the tokenizer, the row validator and the
// creator. It never returns an error: structural problems come back as a
// terminal Status with zero counts.
func (im *Importer) Import(ctx context.Context, text string) Summary {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		im.log.Info("import rejected", zap.String("status", string(StatusEmptyFile)))
		return Summary{Status: StatusEmptyFile}
	}

	lines := nonBlankLines(text)
	im.log.Info("import started", zap.Int("lines", len(lines)))
	if len(lines) < 2 {
		im.log.Info("import rejected", zap.String("status", string(StatusInsufficientData)), zap.Int("lines", len(lines)))
		return Summary{Status: StatusInsufficientData}
	}

	nameIdx, emailIdx := headerIndexes(Tokenize(lines[0].text))
	if nameIdx < 0 || emailIdx < 0 {
		im.log.Info("import rejected", zap.String("status", string(StatusMissingColumns)), zap.String("header", lines[0].text))
		return Summary{Status: StatusMissingColumns}
	}

	var sum Summary
	for _, ln := range lines[1:] {
		out := im.processLine(ctx, ln, nameIdx, emailIdx)
		if out.Kind != Imported {
			im.log.Debug("import row not imported",
				zap.Int("line", out.Line),
				zap.Stringer("outcome", out.Kind),
				zap.String("reason", out.Reason),
			)
		}
		sum.record(out)
	}
	sum.finish()

	im.log.Info("import finished",
		zap.String("status", string(sum.Status)),
		zap.Int("imported", sum.Imported),
		zap.Int("skipped", sum.Skipped),
		zap.Int("errors", sum.Errors),
	)
	if sum.Errors > 0 {
		im.log.Warn("import row errors", zap.Strings("reasons", sum.Reasons), zap.Int("more", sum.DroppedReasons))
	}
	return sum
}

func (im *Importer) processLine(ctx context.Context, ln line, nameIdx, emailIdx int) (out Outcome) {
	out.Line = ln.num
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Line: ln.num, Kind: Failed, Reason: fmt.Sprintf("parse error - %v", r)}
		}
	}()

	row, err := ValidateRow(Tokenize(ln.text), nameIdx, emailIdx)
	if err != nil {
		out.Kind, out.Reason = Failed, err.Error()
		return out
	}

	err = im.users.Create(ctx, &domain.User{Name: row.Name, Email: row.Email})
	switch {
	case err == nil:
		out.Kind = Imported
	case errors.Is(err, domain.ErrDuplicateEmail):
		out.Kind, out.Reason = SkippedDuplicate, domain.ErrDuplicateEmail.Error()
	default:
		out.Kind, out.Reason = Failed, "database error - "+err.Error()
	}
	return out
}

func nonBlankLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		out = append(out, line{num: i + 1, text: l})
	}
	return out
}

// headerIndexes returns the first positions of the name and email columns, or
// -1 when absent. Matching is case-insensitive and ignores surrounding blanks.
func headerIndexes(header []string) (nameIdx, emailIdx int) {
	nameIdx, emailIdx = -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			if nameIdx < 0 {
				nameIdx = i
			}
		case "email":
			if emailIdx < 0 {
				emailIdx = i
			}
		}
	}
	return nameIdx, emailIdx
}
