package entity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/entityadmin/internal/shared"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
)

// Auditor records successful writes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service wraps entity reads and typed writes.
type Service struct {
	repo   Repository
	audit  Auditor
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the entity service. audit may be nil.
func NewService(repo Repository, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = shared.NopAuditLogger{}
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for timestamp columns.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns one page of entities and the total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Entity, int, error) {
	return s.repo.List(ctx, filters.Normalize())
}

// Get loads one entity.
func (s *Service) Get(ctx context.Context, id string) (Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entity{}, ErrIDRequired
	}
	return s.repo.Get(ctx, id)
}

// Hierarchy returns the entity tree.
func (s *Service) Hierarchy(ctx context.Context) ([]sqlapi.Node, error) {
	return s.repo.Hierarchy(ctx)
}

// Execute encodes cmd and saves it. Validation failures return before any
// remote call.
func (s *Service) Execute(ctx context.Context, cmd Command) error {
	payload, err := cmd.Encode(s.now)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, payload); err != nil {
		return err
	}
	entry := shared.AuditLog{
		Action:   cmd.Action(),
		Entity:   TableName,
		EntityID: cmd.EntityID(),
		Meta: map[string]any{
			"op":      string(cmd.Op()),
			"headers": payload.Headers,
		},
		At: s.now(),
	}
	if entry.EntityID == "" {
		entry.EntityID = "pending"
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record entity audit", slog.String("action", entry.Action), slog.String("entity_id", entry.EntityID), slog.Any("error", err))
	}
	return nil
}

// Create inserts a new entity.
func (s *Service) Create(ctx context.Context, cmd NewEntity) error {
	if strings.TrimSpace(cmd.LegalBusinessName) == "" && strings.TrimSpace(cmd.DisplayName) == "" {
		return &ValidationError{Msg: "legal business name or display name is required"}
	}
	return s.Execute(ctx, cmd)
}

// Update rewrites an existing entity.
func (s *Service) Update(ctx context.Context, cmd UpdateEntity) error {
	return s.Execute(ctx, cmd)
}

// Delete soft-deletes an entity.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Execute(ctx, SoftDelete{ID: id})
}

// Purge removes the row.
func (s *Service) Purge(ctx context.Context, id string) error {
	return s.Execute(ctx, DeleteEntity{ID: id})
}

// Patch applies a partial update.
func (s *Service) Patch(ctx context.Context, cmd PartialUpdate) error {
	return s.Execute(ctx, cmd)
}

// SetEnabled flips the enabled flag.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return s.Execute(ctx, PartialUpdate{ID: id, IsEnabled: &enabled})
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
