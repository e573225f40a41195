package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"user-admin/internal/domain"
)

// MemoryUserRepo keeps users in process memory. It mirrors the gorm repository:
// soft deletes, email uniqueness among live users, and the same search and
// ordering rules. Used by the "memory" driver and by tests.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]*domain.User
	now    func() time.Time
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[uint]*domain.User), now: time.Now}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = domain.NormalizeEmail(u.Email)
	if r.emailTaken(u.Email, 0) {
		return fmt.Errorf("create user %s: %w", u.Email, domain.ErrDuplicateEmail)
	}
	r.nextID++
	now := r.now()
	u.ID = r.nextID
	u.CreatedAt, u.UpdatedAt = now, now
	u.DeletedAt = gorm.DeletedAt{}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *MemoryUserRepo) emailTaken(email string, except uint) bool {
	for id, u := range r.users {
		if id != except && !u.DeletedAt.Valid && u.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepo) live(id uint) (*domain.User, bool) {
	u, ok := r.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, false
	}
	return u, true
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.live(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepo) FindAndCount(_ context.Context, q domain.ListQuery) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.User, 0)
	for _, u := range r.users {
		if !u.DeletedAt.Valid && matches(u, q) {
			matched = append(matched, *u)
		}
	}
	sortUsers(matched, q.Sort, q.Desc())

	total := int64(len(matched))
	offset := q.Offset()
	if offset < 0 || offset >= len(matched) {
		return []domain.User{}, total, nil
	}
	end := min(offset+q.Limit, len(matched))
	return matched[offset:end], total, nil
}

func matches(u *domain.User, q domain.ListQuery) bool {
	if q.Search == "" {
		return true
	}
	s := strings.ToLower(q.Search)
	name := strings.Contains(strings.ToLower(u.Name), s)
	email := strings.Contains(strings.ToLower(u.Email), s)
	switch q.Filter {
	case domain.FilterName:
		return name
	case domain.FilterEmail:
		return email
	default:
		return name || email
	}
}

func sortUsers(users []domain.User, field domain.SortField, desc bool) {
	less := func(a, b domain.User) int {
		var c int
		switch field {
		case domain.SortName:
			c = strings.Compare(a.Name, b.Name)
		case domain.SortEmail:
			c = strings.Compare(a.Email, b.Email)
		case domain.SortCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = compareIDs(a.ID, b.ID)
		}
		return c
	}
	sort.SliceStable(users, func(i, j int) bool {
		if desc {
			return less(users[i], users[j]) > 0
		}
		return less(users[i], users[j]) < 0
	})
}

func compareIDs(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *MemoryUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.live(u.ID)
	if !ok {
		return domain.ErrUserNotFound
	}
	email := domain.NormalizeEmail(u.Email)
	if r.emailTaken(email, u.ID) {
		return fmt.Errorf("update user %d: %w", u.ID, domain.ErrDuplicateEmail)
	}
	cur.Name, cur.Email = u.Name, email
	cur.UpdatedAt = r.now()
	*u = *cur
	return nil
}

func (r *MemoryUserRepo) SoftDelete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.live(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	u.DeletedAt = gorm.DeletedAt{Time: r.now(), Valid: true}
	return nil
}

func (r *MemoryUserRepo) SoftDeleteMany(_ context.Context, ids []uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, id := range ids {
		if u, ok := r.live(id); ok {
			u.DeletedAt = gorm.DeletedAt{Time: r.now(), Valid: true}
			n++
		}
	}
	return n, nil
}

func (r *MemoryUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if !u.DeletedAt.Valid {
			out = append(out, *u)
		}
	}
	sortUsers(out, domain.SortCreatedAt, true)
	return out, nil
}

func (r *MemoryUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, u := range r.users {
		if !u.DeletedAt.Valid {
			n++
		}
	}
	return n, nil
}
