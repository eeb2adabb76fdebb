package vanilla

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/store"
)

// DateLayout is how estimation times are printed on pages.
const DateLayout = "2006-01-02 15:04:05"

// historyRows flattens records into the values history.tmpl reads.
func historyRows(records []store.Record, now time.Time) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]any{
			"id":        rec.ID,
			"domain":    rec.Domain,
			"price":     rec.Price,
			"grade":     rec.Grade,
			"date":      rec.EstimatedAt.Local().Format(DateLayout),
			"timestamp": rec.EstimatedAt.UTC().Format(time.RFC3339),
			"ago":       humanize.RelTime(rec.EstimatedAt, now, "ago", "from now"),
		})
	}
	return rows
}

// typedData rewrites the store and estimate values handlers pass in.
func typedData(view map[string]any, data map[string]any, now time.Time) {
	if records, ok := data["records"].([]store.Record); ok {
		view["records"] = historyRows(records, now)
	}
	if res, ok := data["result"].(*estimate.Result); ok && res != nil {
		if _, set := data["estimated_at"]; !set && !res.EstimatedAt.IsZero() {
			view["estimated_at"] = res.EstimatedAt.Local().Format(DateLayout)
		}
		if _, set := data["domain"]; !set {
			view["domain"] = res.Domain
		}
	}
}
