package models

// Game - игра, чей маркет обходит краулер (CS2 = 730, Dota 2 = 570 и т.п.)
type Game struct {
	ID      int64  `json:"id" db:"id"`
	SteamID int    `json:"steam_id" db:"steam_id"`
	Title   string `json:"title" db:"title"`
	Icon    string `json:"icon" db:"icon"`
}
