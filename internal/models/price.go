package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SkinPricePoint - точка истории цены скина в базовой валюте. Только вставка.
type SkinPricePoint struct {
	ID         int64           `json:"id" db:"id"`
	SkinID     int64           `json:"skin_id" db:"skin_id"`
	Price      decimal.Decimal `json:"price" db:"price"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}

// PriceObservation - цена, увиденная на странице маркета; skin резолвится по хешу при записи
type PriceObservation struct {
	MarketHashName string
	Price          decimal.Decimal
	RecordedAt     time.Time
}

// SkinDiscoveredEvent - событие обнаружения нового скина для Kafka
type SkinDiscoveredEvent struct {
	EventID        uuid.UUID       `json:"event_id"`
	SkinID         int64           `json:"skin_id"`
	GameID         int64           `json:"game_id"`
	MarketHashName string          `json:"market_hash_name"`
	Title          string          `json:"title"`
	Icon           string          `json:"icon"`
	InitialPrice   decimal.Decimal `json:"initial_price"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewSkinDiscoveredEvent - создать событие обнаружения скина
func NewSkinDiscoveredEvent(skin Skin, price decimal.Decimal) *SkinDiscoveredEvent {
	return &SkinDiscoveredEvent{
		EventID:        uuid.New(),
		SkinID:         skin.ID,
		GameID:         skin.GameID,
		MarketHashName: skin.MarketHashName,
		Title:          skin.Title,
		Icon:           skin.Icon,
		InitialPrice:   price,
		Timestamp:      time.Now().UTC(),
	}
}
