package steam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/models"
)

const _priceOverviewPath = "/market/priceoverview/"

type priceOverviewResponse struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	Volume      string `json:"volume"`
	MedianPrice string `json:"median_price"`
}

// PriceOverview - минимальная цена предмета в валюте currencyID, строкой в формате валюты.
// ErrNotFound если у предмета нет лотов.
func (c *Client) PriceOverview(ctx context.Context, appID int, marketHashName string, currencyID int) (string, error) {
	cacheKey := fmt.Sprintf("%sprice:%d:%d:%s", _cacheKeyPrefix, appID, currencyID, marketHashName)
	if c.cache != nil {
		if cached, err := c.cache.GetCache(ctx, cacheKey); err == nil && cached != "" {
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("appid", strconv.Itoa(appID))
	params.Set("market_hash_name", marketHashName)
	params.Set("currency", strconv.Itoa(currencyID))

	var resp priceOverviewResponse
	if err := c.getJSON(ctx, "priceoverview", _priceOverviewPath, params, &resp); err != nil {
		return "", err
	}

	lowest := strings.TrimSpace(resp.LowestPrice)
	if !resp.Success || lowest == "" {
		return "", fmt.Errorf("%w: price overview for %q in currency %d", domain.ErrNotFound, marketHashName, currencyID)
	}

	if c.cache != nil {
		// ошибка кеша не должна ронять запрос
		_ = c.cache.SetCache(ctx, cacheKey, lowest, c.cacheTTL)
	}

	return lowest, nil
}

// ParsePrice - разобрать цену маркета ("10.00$", "1 234,56 pуб.", "9,--€") по правилам валюты
func ParsePrice(text string, currency models.Currency) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if currency.Mark != "" {
		s = strings.ReplaceAll(s, currency.Mark, "")
	}
	s = strings.ReplaceAll(s, "--", "00")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s = strings.Trim(b.String(), ".,")

	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: price %q has no digits", domain.ErrUpstreamMalformed, text)
	}

	switch currency.DecimalSeparator() {
	case ',':
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q: %v", domain.ErrUpstreamMalformed, text, err)
	}

	return price, nil
}
