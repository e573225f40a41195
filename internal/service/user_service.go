package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"user-admin/internal/core/cache"
	"user-admin/internal/domain"
	"user-admin/internal/events"
	"user-admin/internal/export"
	"user-admin/internal/importer"
	"user-admin/internal/userquery"
)

type Deps struct {
	Users    domain.UserRepository
	Cache    *cache.Cache // optional
	CacheTTL time.Duration
	Events   events.Publisher // optional
	Archiver export.Archiver  // optional
	Log      *zap.Logger
}

type UserService struct {
	users    domain.UserRepository
	importer *importer.Importer
	cache    *cache.Cache
	cacheTTL time.Duration
	events   events.Publisher
	archiver export.Archiver
	log      *zap.Logger
}

func NewUserService(d Deps) *UserService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = time.Minute
	}
	return &UserService{
		users:    d.Users,
		importer: importer.New(d.Users, d.Log.Named("importer")),
		cache:    d.Cache,
		cacheTTL: d.CacheTTL,
		events:   d.Events,
		archiver: d.Archiver,
		log:      d.Log,
	}
}

// ListResult echoes the sanitized query so the caller can render controls
// from it.
type ListResult struct {
	Items      []domain.User `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
	Search     string        `json:"search"`
	Filter     string        `json:"filter"`
	Sort       string        `json:"sort"`
	Direction  string        `json:"direction"`
}

func (s *UserService) List(ctx context.Context, p userquery.Params) (*ListResult, error) {
	q := userquery.Build(p)
	items, total, err := s.users.FindAndCount(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if items == nil {
		items = []domain.User{}
	}
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: domain.TotalPages(total, q.Limit),
		Search:     q.Search,
		Filter:     string(q.Filter),
		Sort:       string(q.Sort),
		Direction:  string(q.Direction),
	}, nil
}

func userKey(id uint) string { return fmt.Sprintf("user:%d", id) }

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	if s.cache == nil {
		return s.users.FindByID(ctx, id)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, userKey(id), s.cacheTTL, func(ctx context.Context) (*domain.User, error) {
		return s.users.FindByID(ctx, id)
	})
}

func (s *UserService) forget(ctx context.Context, ids ...uint) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("cache evict failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, typ string, data any) {
	if err := s.events.Publish(ctx, events.New(typ, data)); err != nil {
		s.log.Warn("publish event failed", zap.String("type", typ), zap.Error(err))
	}
}

func (s *UserService) Create(ctx context.Context, name, email string) (*domain.User, error) {
	u, err := domain.NewUser(name, email)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Uint("id", u.ID), zap.String("email", u.Email))
	s.publish(ctx, events.TypeUserCreated, u)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id uint, name, email string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.SetProfile(name, email); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.forget(ctx, id)
	s.log.Info("user updated", zap.Uint("id", id), zap.String("email", u.Email))
	s.publish(ctx, events.TypeUserUpdated, u)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.forget(ctx, id)
	s.log.Info("user deleted", zap.Uint("id", id))
	s.publish(ctx, events.TypeUserDeleted, map[string]uint{"id": id})
	return nil
}

// BulkDelete soft-deletes the live users among ids and reports how many went.
func (s *UserService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.users.SoftDeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	s.forget(ctx, ids...)
	s.log.Info("users bulk deleted", zap.Int("requested", len(ids)), zap.Int64("deleted", n))
	if n > 0 {
		s.publish(ctx, events.TypeUsersBulkDeleted, map[string]any{"ids": ids, "deleted": n})
	}
	return n, nil
}

type Dashboard struct {
	TotalUsers int64 `json:"totalUsers"`
}

func (s *UserService) Dashboard(ctx context.Context) (Dashboard, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count users: %w", err)
	}
	return Dashboard{TotalUsers: n}, nil
}

// Import runs the CSV text through the importer and records metrics. It never
// fails; the Summary carries the outcome.
func (s *UserService) Import(ctx context.Context, text string) importer.Summary {
	start := time.Now()
	sum := s.importer.Import(ctx, text)
	importDuration.Observe(time.Since(start).Seconds())
	importRuns.WithLabelValues(string(sum.Status)).Inc()
	importRows.WithLabelValues(importer.Imported.String()).Add(float64(sum.Imported))
	importRows.WithLabelValues(importer.SkippedDuplicate.String()).Add(float64(sum.Skipped))
	importRows.WithLabelValues(importer.Failed.String()).Add(float64(sum.Errors))

	if sum.Status.Processed() {
		s.publish(ctx, events.TypeImportCompleted, sum)
	}
	return sum
}

// ExportCSV writes every live user, newest first.
func (s *UserService) ExportCSV(ctx context.Context, w io.Writer) error {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load users for export: %w", err)
	}
	if err := export.WriteCSV(w, users); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	s.log.Info("users exported", zap.Int("rows", len(users)))
	return nil
}

func (s *UserService) ArchiveEnabled() bool { return s.archiver != nil }

// Archive uploads the same CSV ExportCSV produces to object storage.
func (s *UserService) Archive(ctx context.Context) (export.Archive, error) {
	if s.archiver == nil {
		return export.Archive{}, export.ErrArchiveDisabled
	}
	var buf bytes.Buffer
	if err := s.ExportCSV(ctx, &buf); err != nil {
		return export.Archive{}, err
	}
	a, err := s.archiver.Archive(ctx, &buf)
	if err != nil {
		return export.Archive{}, err
	}
	s.log.Info("export archived", zap.String("bucket", a.Bucket), zap.String("key", a.Key))
	return a, nil
}
