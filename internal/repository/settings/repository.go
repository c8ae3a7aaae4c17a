package settings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/settings")

// ErrNotFound is returned when no settings row has been seeded.
var ErrNotFound = errors.New("settings not found")

// Repository reads the global rates record.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Current returns the rates snapshot. Called once per transaction so rates
// cannot change under an in-flight order.
func (r *Repository) Current(ctx context.Context) (*entity.Settings, error) {
	ctx, span := repoTracer.Start(ctx, "SettingsRepository.Current")
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	s := new(entity.Settings)
	err := db.NewSelect().Model(s).Order("id").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return s, nil
}
