package migrate

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
)

// Models lists every persisted table in dependency order.
func Models() []any {
	return []any{
		&models.Seller{},
		&models.Product{},
		&models.BuyerOrder{},
		&models.Settlement{},
		&models.SettlementPayout{},
		&models.LedgerEntry{},
		&models.BuyerLoyalty{},
		&models.SellerBalance{},
		&models.OutboxEvent{},
		&models.OutboxDLQ{},
	}
}

// AutoMigrate creates the schema through gorm. It backs sqlite dev databases
// and repository tests; Postgres environments use the goose SQL files.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
