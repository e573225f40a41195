package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"user-admin/internal/domain"
)

// fakeStore mimics a storage uniqueness constraint on email.
type fakeStore struct {
	emails  map[string]bool
	created []domain.User
	fail    map[string]error
	panicOn string
}

func newFakeStore(existing ...string) *fakeStore {
	s := &fakeStore{emails: map[string]bool{}, fail: map[string]error{}}
	for _, e := range existing {
		s.emails[e] = true
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, u *domain.User) error {
	if s.panicOn != "" && u.Email == s.panicOn {
		panic("boom")
	}
	if err, ok := s.fail[u.Email]; ok {
		return err
	}
	if s.emails[u.Email] {
		return fmt.Errorf("insert user: %w", domain.ErrDuplicateEmail)
	}
	s.emails[u.Email] = true
	u.ID = uint(len(s.created) + 1)
	s.created = append(s.created, *u)
	return nil
}

func TestImport_Preconditions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Status
	}{
		{"empty", "", StatusEmptyFile},
		{"whitespace only", "  \n\t\r\n ", StatusEmptyFile},
		{"bom only", "\ufeff", StatusEmptyFile},
		{"header only", "name,email\n", StatusInsufficientData},
		{"header and blank lines", "name,email\n\n   \n", StatusInsufficientData},
		{"no name or email columns", "foo,bar\n1,2\n3,4\n", StatusMissingColumns},
		{"only name column", "name,phone\nBob,555\n", StatusMissingColumns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			sum := New(store, nil).Import(context.Background(), tt.text)
			if sum.Status != tt.want {
				t.Errorf("status = %q, want %q", sum.Status, tt.want)
			}
			if sum.Status.Processed() {
				t.Errorf("status %q must not count as processed", sum.Status)
			}
			if sum.Imported+sum.Skipped+sum.Errors != 0 {
				t.Errorf("expected zero counts, got %+v", sum)
			}
			if len(store.created) != 0 {
				t.Errorf("expected no rows written, got %d", len(store.created))
			}
		})
	}
}

func TestImport_HeaderOrderIndependent(t *testing.T) {
	store := newFakeStore()
	sum := New(store, nil).Import(context.Background(), "email,name\nx@y.com,Bob\n")

	if sum.Status != StatusSuccess || sum.Imported != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	got := store.created[0]
	if got.Name != "Bob" || got.Email != "x@y.com" {
		t.Errorf("created %+v, want name=Bob email=x@y.com", got)
	}
}

func TestImport_HeaderCaseAndExtraColumns(t *testing.T) {
	text := "\ufeffID, Email ,Role, NAME \r\n7,ANN@Example.com,admin,Ann\r\n"
	store := newFakeStore()
	sum := New(store, nil).Import(context.Background(), text)

	if sum.Imported != 1 {
		t.Fatalf("expected 1 imported, got %+v", sum)
	}
	if got := store.created[0]; got.Name != "Ann" || got.Email != "ann@example.com" {
		t.Errorf("created %+v", got)
	}
}

func TestImport_HundredRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,email\n")
	for i := 1; i <= 98; i++ {
		fmt.Fprintf(&b, "User %d,user%d@example.com\n", i, i)
	}
	b.WriteString("Existing,taken@example.com\n")
	b.WriteString("Broken,not-an-email\n")

	store := newFakeStore("taken@example.com")
	sum := New(store, nil).Import(context.Background(), b.String())

	if sum.Imported != 98 || sum.Skipped != 1 || sum.Errors != 1 {
		t.Fatalf("counts = %d/%d/%d, want 98/1/1", sum.Imported, sum.Skipped, sum.Errors)
	}
	if sum.Status != StatusSuccess {
		t.Errorf("status = %q, want success", sum.Status)
	}
	want := []string{"Line 100: duplicate user", "Line 101: invalid email format"}
	if strings.Join(sum.Reasons, "|") != strings.Join(want, "|") {
		t.Errorf("reasons = %q, want %q", sum.Reasons, want)
	}
}

func TestImport_LineNumbersCountBlankLines(t *testing.T) {
	text := "name,email\n\nBob,\n\n\nAnn,ann@example.com\n"
	sum := New(newFakeStore(), nil).Import(context.Background(), text)

	if sum.Imported != 1 || sum.Errors != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(sum.Reasons) != 1 || sum.Reasons[0] != "Line 3: missing name or email" {
		t.Errorf("reasons = %q", sum.Reasons)
	}
}

func TestImport_AllRowsRejectedIsPartialSuccess(t *testing.T) {
	text := "name,email\nBob\n,x@y.com\nAnn,ann@\n"
	sum := New(newFakeStore(), nil).Import(context.Background(), text)

	if sum.Status != StatusPartialSuccess {
		t.Errorf("status = %q, want partial-success", sum.Status)
	}
	if sum.Errors != 3 || sum.Imported != 0 {
		t.Errorf("unexpected counts %+v", sum)
	}
	want := []string{
		"Line 2: insufficient columns",
		"Line 3: missing name or email",
		"Line 4: invalid email format",
	}
	if strings.Join(sum.Reasons, "|") != strings.Join(want, "|") {
		t.Errorf("reasons = %q, want %q", sum.Reasons, want)
	}
}

func TestImport_OnlyDuplicatesIsNoNewUsers(t *testing.T) {
	text := "name,email\nBob,bob@example.com\nBobby,BOB@example.com\n"
	sum := New(newFakeStore("bob@example.com"), nil).Import(context.Background(), text)

	if sum.Status != StatusNoNewUsers {
		t.Errorf("status = %q, want no-new-users", sum.Status)
	}
	if sum.Skipped != 2 || sum.Errors != 0 {
		t.Errorf("unexpected counts %+v", sum)
	}
}

func TestImport_DuplicateWithinFile(t *testing.T) {
	text := "name,email\nBob,bob@example.com\nBob Again, Bob@Example.com \n"
	store := newFakeStore()
	sum := New(store, nil).Import(context.Background(), text)

	if sum.Imported != 1 || sum.Skipped != 1 {
		t.Errorf("unexpected counts %+v", sum)
	}
}

func TestImport_StorageFailureIsolated(t *testing.T) {
	store := newFakeStore()
	store.fail["down@example.com"] = errors.New("connection reset")
	text := "name,email\nA,a@example.com\nDown,down@example.com\nB,b@example.com\n"

	sum := New(store, nil).Import(context.Background(), text)

	if sum.Imported != 2 || sum.Errors != 1 {
		t.Fatalf("unexpected counts %+v", sum)
	}
	if sum.Reasons[0] != "Line 3: database error - connection reset" {
		t.Errorf("reason = %q", sum.Reasons[0])
	}
}

func TestImport_PanicOnLineIsIsolated(t *testing.T) {
	store := newFakeStore()
	store.panicOn = "boom@example.com"
	text := "name,email\nBoom,boom@example.com\nOk,ok@example.com\n"

	sum := New(store, nil).Import(context.Background(), text)

	if sum.Imported != 1 || sum.Errors != 1 {
		t.Fatalf("unexpected counts %+v", sum)
	}
	if !strings.HasPrefix(sum.Reasons[0], "Line 2: parse error") {
		t.Errorf("reason = %q", sum.Reasons[0])
	}
}

func TestImport_ReasonsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,email\n")
	for i := 0; i < 15; i++ {
		b.WriteString("Bob,bad\n")
	}
	sum := New(newFakeStore(), nil).Import(context.Background(), b.String())

	if sum.Errors != 15 {
		t.Fatalf("errors = %d, want 15", sum.Errors)
	}
	if len(sum.Reasons) != MaxReasons || sum.DroppedReasons != 5 {
		t.Errorf("reasons kept %d dropped %d", len(sum.Reasons), sum.DroppedReasons)
	}
}

func TestImport_QuotedFields(t *testing.T) {
	text := "name,email\n\"Smith, John\",john@example.com\n\"Quote \"\"Q\"\" Man\",q@example.com\n"
	store := newFakeStore()
	sum := New(store, nil).Import(context.Background(), text)

	if sum.Imported != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if store.created[0].Name != "Smith, John" || store.created[1].Name != `Quote "Q" Man` {
		t.Errorf("names = %q, %q", store.created[0].Name, store.created[1].Name)
	}
}

func TestOutcomeKind_String(t *testing.T) {
	if Imported.String() != "imported" || SkippedDuplicate.String() != "skipped-duplicate" || Failed.String() != "error" {
		t.Error("unexpected outcome kind names")
	}
}
