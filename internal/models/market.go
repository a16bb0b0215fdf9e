package models

// PageRequest - параметры постраничного поиска маркета
type PageRequest struct {
	AppID      int
	CurrencyID int
	Count      int
	Start      int
	Query      string
}

// SearchItem - предмет из выдачи поиска; цена - строка в формате валюты
type SearchItem struct {
	Name          string
	HashName      string
	SellPriceText string
	IconURL       string
}

// SearchPage - одна страница выдачи и общее число предметов по запросу.
// ResultCount - сколько строк вернул маркет, включая отброшенные без хеша; offset сдвигается на него.
type SearchPage struct {
	TotalCount  int
	Start       int
	ResultCount int
	Items       []SearchItem
}

// InventoryItem - предмет инвентаря профиля
type InventoryItem struct {
	AssetID        string
	ClassID        string
	MarketHashName string
	Name           string
	IconURL        string
	Amount         int
	Marketable     bool
}
