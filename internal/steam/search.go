package steam

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/models"
)

const (
	_searchPath     = "/market/search/render/"
	_maxSearchCount = 100
)

type searchResponse struct {
	Success    bool `json:"success"`
	Start      int  `json:"start"`
	PageSize   int  `json:"pagesize"`
	TotalCount int  `json:"total_count"`
	Results    []struct {
		Name             string `json:"name"`
		HashName         string `json:"hash_name"`
		SellListings     int    `json:"sell_listings"`
		SellPrice        int    `json:"sell_price"`
		SellPriceText    string `json:"sell_price_text"`
		AssetDescription struct {
			AppID          int    `json:"appid"`
			ClassID        string `json:"classid"`
			IconURL        string `json:"icon_url"`
			MarketHashName string `json:"market_hash_name"`
		} `json:"asset_description"`
	} `json:"results"`
}

// SearchPage - одна страница поиска маркета, отсортированная по популярности.
// Цены приходят строками в формате запрошенной валюты.
func (c *Client) SearchPage(ctx context.Context, req models.PageRequest) (*models.SearchPage, error) {
	params := url.Values{}
	params.Set("norender", "1")
	params.Set("appid", strconv.Itoa(req.AppID))
	params.Set("start", strconv.Itoa(req.Start))
	params.Set("count", strconv.Itoa(req.Count))
	params.Set("search_descriptions", "0")
	params.Set("sort_column", "popular")
	params.Set("sort_dir", "desc")
	if req.CurrencyID > 0 {
		params.Set("currency", strconv.Itoa(req.CurrencyID))
	}
	if req.Query != "" {
		params.Set("query", req.Query)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "search", _searchPath, params, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("%w: search: steam api returned success=false", domain.ErrUpstreamUnavailable)
	}

	// Steam иногда отдаёт пустую страницу внутри заявленного total_count
	if len(resp.Results) == 0 && req.Start < resp.TotalCount {
		return nil, fmt.Errorf("%w: search: empty page at start=%d of total_count=%d",
			domain.ErrUpstreamMalformed, req.Start, resp.TotalCount)
	}

	page := &models.SearchPage{
		TotalCount:  resp.TotalCount,
		Start:       resp.Start,
		ResultCount: len(resp.Results),
		Items:       make([]models.SearchItem, 0, len(resp.Results)),
	}

	for _, result := range resp.Results {
		hashName := strings.TrimSpace(result.HashName)
		if hashName == "" {
			hashName = strings.TrimSpace(result.AssetDescription.MarketHashName)
		}
		if hashName == "" {
			continue
		}

		page.Items = append(page.Items, models.SearchItem{
			Name:          result.Name,
			HashName:      hashName,
			SellPriceText: result.SellPriceText,
			IconURL:       result.AssetDescription.IconURL,
		})
	}

	return page, nil
}

// LookupItem - найти предмет по market_hash_name (без учёта регистра)
func (c *Client) LookupItem(ctx context.Context, appID int, marketHashName string) (*models.SearchItem, error) {
	page, err := c.SearchPage(ctx, models.PageRequest{
		AppID: appID,
		Count: _maxSearchCount,
		Query: marketHashName,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range page.Items {
		if strings.EqualFold(item.HashName, marketHashName) {
			found := item
			return &found, nil
		}
	}

	return nil, fmt.Errorf("%w: item %q", domain.ErrNotFound, marketHashName)
}
