package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User - владелец групп; CurrencyID - валюта отображения сумм
type User struct {
	ID           int64            `json:"id" db:"id"`
	SteamID      string           `json:"steam_id" db:"steam_id"`
	Role         string           `json:"role" db:"role"`
	CurrencyID   int64            `json:"currency_id" db:"currency_id"`
	StartPage    string           `json:"start_page" db:"start_page"`
	RegisteredAt time.Time        `json:"registered_at" db:"registered_at"`
	TargetSum    *decimal.Decimal `json:"target_sum,omitempty" db:"target_sum"`
}

// Active - непроданная позиция. LatestPrice - последняя цена скина (nil, если истории нет).
type Active struct {
	ID          int64            `json:"id" db:"id"`
	GroupID     int64            `json:"group_id" db:"group_id"`
	SkinID      int64            `json:"skin_id" db:"skin_id"`
	Count       int              `json:"count" db:"count"`
	BuyPrice    decimal.Decimal  `json:"buy_price" db:"buy_price"`
	BuyDate     time.Time        `json:"buy_date" db:"buy_date"`
	TargetPrice *decimal.Decimal `json:"target_price,omitempty" db:"target_price"`
	Description string           `json:"description" db:"description"`

	Skin        Skin             `json:"skin"`
	LatestPrice *decimal.Decimal `json:"latest_price,omitempty"`
}

// CurrentValue - последняя цена × количество в базовой валюте
func (a Active) CurrentValue() decimal.Decimal {
	if a.LatestPrice == nil {
		return decimal.Zero
	}
	return a.LatestPrice.Mul(decimal.NewFromInt(int64(a.Count)))
}

// ActiveGroup - группа активов пользователя вместе с валютой владельца и её последним курсом
type ActiveGroup struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	TargetSum *decimal.Decimal `json:"target_sum,omitempty" db:"target_sum"`

	User         User             `json:"user"`
	Currency     Currency         `json:"currency"`
	CurrencyRate *decimal.Decimal `json:"currency_rate,omitempty"`
	Actives      []Active         `json:"actives"`
}

// BaseTotal - сумма текущих стоимостей активов в базовой валюте
func (g ActiveGroup) BaseTotal() decimal.Decimal {
	total := decimal.Zero
	for _, active := range g.Actives {
		total = total.Add(active.CurrentValue())
	}
	return total
}

// UserTotal - сумма в валюте владельца, округлённая до копеек
func (g ActiveGroup) UserTotal() decimal.Decimal {
	return g.BaseTotal().Mul(RateOrDefault(g.CurrencyRate)).Round(2)
}

// ActiveGroupValuationPoint - суточная оценка группы в валюте владельца. Только вставка.
type ActiveGroupValuationPoint struct {
	ID         int64           `json:"id" db:"id"`
	GroupID    int64           `json:"group_id" db:"group_id"`
	Sum        decimal.Decimal `json:"sum" db:"sum"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}

// GroupValuationEvent - событие новой оценки группы для Kafka
type GroupValuationEvent struct {
	EventID    uuid.UUID       `json:"event_id"`
	GroupID    int64           `json:"group_id"`
	UserID     int64           `json:"user_id"`
	CurrencyID int64           `json:"currency_id"`
	Sum        decimal.Decimal `json:"sum"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewGroupValuationEvent -.
func NewGroupValuationEvent(group ActiveGroup, point ActiveGroupValuationPoint) *GroupValuationEvent {
	return &GroupValuationEvent{
		EventID:    uuid.New(),
		GroupID:    point.GroupID,
		UserID:     group.UserID,
		CurrencyID: group.Currency.ID,
		Sum:        point.Sum,
		RecordedAt: point.RecordedAt,
	}
}
