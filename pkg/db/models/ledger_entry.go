package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
)

// LedgerEntry is an append-only money movement. Corrections are new rows
// pointing at the entry they reverse.
type LedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	PartyType   enums.LedgerPartyType `gorm:"column:party_type;type:text;not null"`
	PartyID     *uuid.UUID            `gorm:"column:party_id;type:uuid"`
	Direction   enums.LedgerDirection `gorm:"column:direction;type:text;not null"`
	EntryType   enums.LedgerEntryType `gorm:"column:entry_type;type:text;not null"`
	AmountCents int64                 `gorm:"column:amount_cents;not null"`
	Memo        string                `gorm:"column:memo;not null;default:''"`
	ReversalOf  *uuid.UUID            `gorm:"column:reversal_of;type:uuid;uniqueIndex"`
	LineNo      int                   `gorm:"column:line_no;not null;default:0"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
