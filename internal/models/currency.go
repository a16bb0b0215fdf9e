package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency - отслеживаемая валюта. Culture определяет формат цен маркета.
type Currency struct {
	ID      int64  `json:"id" db:"id"`
	SteamID int    `json:"steam_id" db:"steam_id"`
	Title   string `json:"title" db:"title"`
	Mark    string `json:"mark" db:"mark"`
	Culture string `json:"culture" db:"culture"`
}

// DecimalSeparator - десятичный разделитель для культуры валюты
func (c Currency) DecimalSeparator() rune {
	culture := strings.ReplaceAll(strings.ToLower(c.Culture), "_", "-")
	switch culture {
	case "de-ch", "fr-ch", "it-ch", "es-mx", "es-us":
		return '.'
	}

	lang := culture
	if i := strings.IndexAny(lang, "-_"); i != -1 {
		lang = lang[:i]
	}

	switch lang {
	case "en", "ja", "zh", "ko", "th", "he", "hi", "ms", "fil", "ga", "mt", "sw", "":
		return '.'
	default:
		return ','
	}
}

// IsBase -.
func (c Currency) IsBase(baseID int64) bool {
	return c.ID == baseID
}

// CurrencyRatePoint - курс валюты относительно базовой. Только вставка.
type CurrencyRatePoint struct {
	ID         int64           `json:"id" db:"id"`
	CurrencyID int64           `json:"currency_id" db:"currency_id"`
	Rate       decimal.Decimal `json:"rate" db:"rate"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}

// RateOrDefault - последний курс или 1.0, если точек курса ещё нет
func RateOrDefault(rate *decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return decimal.NewFromInt(1)
	}
	return *rate
}
