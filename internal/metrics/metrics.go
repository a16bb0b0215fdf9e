// Package metrics - Prometheus коллекторы задач синхронизации и клиента маркета Steam.
// Отдаются ops сервером на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Клиент маркета Steam
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinsync_upstream_requests_total",
			Help: "Requests to the Steam market by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skinsync_upstream_request_duration_seconds",
			Help:    "Steam market request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Планировщик
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinsync_job_runs_total",
			Help: "Background job runs by outcome (success, already_done, failed, dropped)",
		},
		[]string{"job", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skinsync_job_duration_seconds",
			Help:    "Background job run duration in seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 3600, 4 * 3600, 12 * 3600},
		},
		[]string{"job"},
	)

	JobRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skinsync_job_running",
			Help: "1 while the job is running or waiting out its retry cooldown",
		},
		[]string{"job"},
	)

	// Обход каталога
	CatalogPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinsync_catalog_pages_total",
			Help: "Market pages processed by the crawler by outcome",
		},
		[]string{"outcome"},
	)

	CatalogOffset = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skinsync_catalog_offset",
			Help: "Current crawl offset per game",
		},
		[]string{"game"},
	)

	SkinsDiscoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skinsync_skins_discovered_total",
			Help: "Skins inserted into the catalog by the crawler",
		},
	)

	PricePointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skinsync_price_points_total",
			Help: "Skin price points appended",
		},
	)

	// Курсы валют и оценка групп
	CurrencyRatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinsync_currency_rates_total",
			Help: "Currency rate lookups by outcome (recorded, skipped)",
		},
		[]string{"outcome"},
	)

	ValuationPointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skinsync_valuation_points_total",
			Help: "Active group valuation points appended",
		},
	)
)
