package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/bistro/repository/catalog")

// ErrNotFound is returned when a menu item is missing or inactive.
var ErrNotFound = errors.New("menu item not found")

// Repository resolves catalog snapshots at order time. Read-only.
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

// ResolveItem loads an active menu item with its discounts and recipe,
// including material costs. Joins the ambient transaction when present so
// order creation reads a consistent snapshot.
func (r *Repository) ResolveItem(ctx context.Context, id int64) (*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ResolveItem", trace.WithAttributes(attribute.Int64("menu_item.id", id)))
	defer span.End()

	db := database.FromContext(ctx, r.reader)

	item := new(entity.MenuItem)
	err := db.NewSelect().Model(item).
		Relation("Discounts").
		Relation("Recipe").
		Relation("Recipe.Material").
		Where("menu_item.id = ?", id).
		Where("menu_item.active").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return item, nil
}

// RecipeFor loads the recipe for a menu item regardless of its active flag.
// Settlement resolves recipes through this so a deactivated item can still
// settle orders taken while it was on the menu.
func (r *Repository) RecipeFor(ctx context.Context, menuItemID int64) ([]*entity.RecipeIngredient, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.RecipeFor", trace.WithAttributes(attribute.Int64("menu_item.id", menuItemID)))
	defer span.End()

	db := database.FromContext(ctx, r.writer)

	var recipe []*entity.RecipeIngredient
	err := db.NewSelect().Model(&recipe).
		Where("menu_item_id = ?", menuItemID).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return recipe, nil
}
