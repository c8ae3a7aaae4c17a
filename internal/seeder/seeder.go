package seeder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bistro/internal/database"
	"github.com/Additional-Code/bistro/internal/entity"
)

// Module wires the seeder into the Fx graph.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All seeds settings, tables, materials and the menu in order.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Settings(ctx); err != nil {
		return err
	}
	if err := s.Tables(ctx); err != nil {
		return err
	}
	if err := s.Materials(ctx); err != nil {
		return err
	}
	return s.Menu(ctx)
}

// Settings seeds the global rates record if missing.
func (s *Seeder) Settings(ctx context.Context) error {
	settings := entity.Settings{
		TaxPct:        decimal.NewFromInt(5),
		ServiceFeePct: decimal.NewFromInt(10),
		DeliveryFee:   decimal.NewFromInt(150),
		UpdatedAt:     time.Now().UTC(),
	}
	exists, err := s.db.NewSelect().Model((*entity.Settings)(nil)).Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := s.db.NewInsert().Model(&settings).Exec(ctx); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("seeded settings")
	}
	return nil
}

// Tables seeds the floor plan if empty.
func (s *Seeder) Tables(ctx context.Context) error {
	exists, err := s.db.NewSelect().Model((*entity.Table)(nil)).Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	now := time.Now().UTC()
	tables := make([]entity.Table, 0, 8)
	for i := 1; i <= 8; i++ {
		tables = append(tables, entity.Table{
			Number:    i,
			Status:    entity.TableAvailable,
			Capacity:  4,
			PosX:      (i - 1) % 4,
			PosY:      (i - 1) / 4,
			UpdatedAt: now,
		})
	}
	if _, err := s.db.NewInsert().Model(&tables).Exec(ctx); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("seeded tables", zap.Int("count", len(tables)))
	}
	return nil
}

// Materials seeds a small raw material set if empty.
func (s *Seeder) Materials(ctx context.Context) error {
	exists, err := s.db.NewSelect().Model((*entity.RawMaterial)(nil)).Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	now := time.Now().UTC()
	materials := []entity.RawMaterial{
		{Name: "flour", Unit: "kg", Stock: decimal.NewFromInt(50), CostPerUnit: decimal.NewFromInt(12), ReorderLevel: decimal.NewFromInt(10), UpdatedAt: now},
		{Name: "tomato", Unit: "kg", Stock: decimal.NewFromInt(30), CostPerUnit: decimal.NewFromInt(8), ReorderLevel: decimal.NewFromInt(5), UpdatedAt: now},
		{Name: "cheese", Unit: "kg", Stock: decimal.NewFromInt(20), CostPerUnit: decimal.NewFromInt(45), ReorderLevel: decimal.NewFromInt(4), UpdatedAt: now},
		{Name: "beef", Unit: "kg", Stock: decimal.NewFromInt(25), CostPerUnit: decimal.NewFromInt(90), ReorderLevel: decimal.NewFromInt(5), UpdatedAt: now},
	}
	if _, err := s.db.NewInsert().Model(&materials).Exec(ctx); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("seeded materials", zap.Int("count", len(materials)))
	}
	return nil
}

// Menu seeds menu items with recipes and one running promotion if empty.
func (s *Seeder) Menu(ctx context.Context) error {
	exists, err := s.db.NewSelect().Model((*entity.MenuItem)(nil)).Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	now := time.Now().UTC()

	items := []entity.MenuItem{
		{Name: "Margherita", Price: decimal.NewFromInt(1000), Active: true, CreatedAt: now, UpdatedAt: now},
		{Name: "Burger", Price: decimal.NewFromInt(500), Active: true, CreatedAt: now, UpdatedAt: now},
	}
	if _, err := s.db.NewInsert().Model(&items).Exec(ctx); err != nil {
		return err
	}

	recipes := []entity.RecipeIngredient{
		{MenuItemID: items[0].ID, MaterialID: 1, Quantity: decimal.NewFromFloat(0.3)},
		{MenuItemID: items[0].ID, MaterialID: 2, Quantity: decimal.NewFromFloat(0.2)},
		{MenuItemID: items[0].ID, MaterialID: 3, Quantity: decimal.NewFromFloat(0.15)},
		{MenuItemID: items[1].ID, MaterialID: 1, Quantity: decimal.NewFromFloat(0.1)},
		{MenuItemID: items[1].ID, MaterialID: 4, Quantity: decimal.NewFromFloat(0.2)},
	}
	if _, err := s.db.NewInsert().Model(&recipes).Exec(ctx); err != nil {
		return err
	}

	discount := entity.Discount{
		MenuItemID: items[1].ID,
		Percentage: decimal.NewFromInt(20),
		StartsAt:   now.AddDate(0, 0, -1),
		EndsAt:     now.AddDate(0, 1, 0),
		Active:     true,
	}
	if _, err := s.db.NewInsert().Model(&discount).Exec(ctx); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("seeded menu", zap.Int("items", len(items)))
	}
	return nil
}
