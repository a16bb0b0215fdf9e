package steam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/models"
)

const _inventoryContextID = "2"

type inventoryResponse struct {
	Success int `json:"success"`
	Assets  []struct {
		AppID      int    `json:"appid"`
		AssetID    string `json:"assetid"`
		ClassID    string `json:"classid"`
		InstanceID string `json:"instanceid"`
		Amount     string `json:"amount"`
	} `json:"assets"`
	Descriptions []struct {
		ClassID        string `json:"classid"`
		InstanceID     string `json:"instanceid"`
		IconURL        string `json:"icon_url"`
		Name           string `json:"name"`
		MarketHashName string `json:"market_hash_name"`
		Marketable     int    `json:"marketable"`
	} `json:"descriptions"`
	TotalInventoryCount int `json:"total_inventory_count"`
}

// Inventory - предметы публичного инвентаря профиля, не больше count
func (c *Client) Inventory(ctx context.Context, profileID string, appID, count int) ([]models.InventoryItem, error) {
	if profileID == "" {
		return nil, fmt.Errorf("%w: empty profile id", domain.ErrNotFound)
	}

	params := url.Values{}
	params.Set("l", "english")
	params.Set("count", strconv.Itoa(count))

	path := fmt.Sprintf("/inventory/%s/%d/%s", url.PathEscape(profileID), appID, _inventoryContextID)

	var resp inventoryResponse
	if err := c.getJSON(ctx, "inventory", path, params, &resp); err != nil {
		return nil, err
	}

	if resp.Success != 1 {
		return nil, fmt.Errorf("%w: inventory: steam api returned success=%d", domain.ErrUpstreamUnavailable, resp.Success)
	}

	type descKey struct{ classID, instanceID string }
	descriptions := make(map[descKey]int, len(resp.Descriptions))
	for i, d := range resp.Descriptions {
		descriptions[descKey{d.ClassID, d.InstanceID}] = i
	}

	items := make([]models.InventoryItem, 0, len(resp.Assets))
	for _, asset := range resp.Assets {
		idx, ok := descriptions[descKey{asset.ClassID, asset.InstanceID}]
		if !ok {
			continue
		}
		d := resp.Descriptions[idx]

		amount, err := strconv.Atoi(asset.Amount)
		if err != nil || amount <= 0 {
			amount = 1
		}

		items = append(items, models.InventoryItem{
			AssetID:        asset.AssetID,
			ClassID:        asset.ClassID,
			MarketHashName: d.MarketHashName,
			Name:           d.Name,
			IconURL:        d.IconURL,
			Amount:         amount,
			Marketable:     d.Marketable == 1,
		})

		if count > 0 && len(items) >= count {
			break
		}
	}

	return items, nil
}
