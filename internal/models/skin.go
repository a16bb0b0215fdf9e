package models

import (
	"strings"
	"time"
)

// Skin - предмет маркета, уникальный по market_hash_name без учёта регистра
type Skin struct {
	ID             int64     `json:"id" db:"id"`
	GameID         int64     `json:"game_id" db:"game_id"`
	MarketHashName string    `json:"market_hash_name" db:"market_hash_name"`
	Title          string    `json:"title" db:"title"`
	Icon           string    `json:"icon" db:"icon"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewSkin - создать скин, впервые увиденный на маркете
func NewSkin(gameID int64, marketHashName, title, icon string) *Skin {
	return &Skin{
		GameID:         gameID,
		MarketHashName: strings.TrimSpace(marketHashName),
		Title:          title,
		Icon:           icon,
		CreatedAt:      time.Now().UTC(),
	}
}

// HashKey - ключ сравнения market_hash_name (Steam непоследователен в регистре)
func HashKey(marketHashName string) string {
	return strings.ToLower(strings.TrimSpace(marketHashName))
}
