package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user-admin/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDupKey(err) {
			return fmt.Errorf("create user %s: %w", u.Email, domain.ErrDuplicateEmail)
		}
		return err
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindAndCount(ctx context.Context, q domain.ListQuery) ([]domain.User, int64, error) {
	var total int64
	if err := r.listScope(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	users := make([]domain.User, 0, q.Limit)
	err := r.listScope(ctx, q).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.Sort.Column()}, Desc: q.Desc()}).
		Scopes(idTieBreak(q)).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepo) listScope(ctx context.Context, q domain.ListQuery) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.User{}).Scopes(searchScope(q))
}

// searchScope matches case-insensitive substrings. LIKE wildcards in the
// search text are escaped with '!' so they match literally on every driver.
func searchScope(q domain.ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.Search == "" {
			return db
		}
		like := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		switch q.Filter {
		case domain.FilterName:
			return db.Where("LOWER(name) LIKE ? ESCAPE '!'", like)
		case domain.FilterEmail:
			return db.Where("LOWER(email) LIKE ? ESCAPE '!'", like)
		default:
			return db.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!')", like, like)
		}
	}
}

func idTieBreak(q domain.ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.Sort == domain.SortID {
			return db
		}
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: q.Desc()})
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// Update writes name and email of an existing, live user.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	res := r.db.WithContext(ctx).Model(u).Select("Name", "Email", "UpdatedAt").Updates(u)
	if res.Error != nil {
		if isDupKey(res.Error) {
			return fmt.Errorf("update user %d: %w", u.ID, domain.ErrDuplicateEmail)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) SoftDeleteMany(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.User{})
	return res.RowsAffected, res.Error
}

func (r *UserRepo) ListAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&users).Error
	return users, err
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// drivers without TranslateError support only expose the message
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
