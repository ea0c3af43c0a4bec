package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"youth-sports-gamification/logger"
	"youth-sports-gamification/models"
)

type FlagLister interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.SuspiciousActivity, error)
}

// ObjectUploader is satisfied by utils.R2Client.
type ObjectUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// AuditExporter ships each local day's suspicious-activity flags to object
// storage as newline-delimited JSON, one object per day.
type AuditExporter struct {
	Flags    FlagLister
	Uploader ObjectUploader
	Prefix   string
	Location *time.Location
}

func NewAuditExporter(flags FlagLister, uploader ObjectUploader, prefix string, loc *time.Location) *AuditExporter {
	if loc == nil {
		loc = time.Local
	}
	return &AuditExporter{
		Flags:    flags,
		Uploader: uploader,
		Prefix:   strings.Trim(prefix, "/"),
		Location: loc,
	}
}

// ExportDay uploads the flags raised on day's local date and returns the
// object URL, or "" when there was nothing to export.
func (e *AuditExporter) ExportDay(ctx context.Context, day time.Time) (string, error) {
	y, m, d := day.In(e.Location).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, e.Location)
	to := from.AddDate(0, 0, 1)

	flags, err := e.Flags.ListBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("failed to load audit flags: %w", err)
	}
	if len(flags) == 0 {
		logger.Debug().Str("day", from.Format("2006-01-02")).Msg("no suspicious activity to export")
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, f := range flags {
		if err := enc.Encode(f); err != nil {
			return "", fmt.Errorf("failed to encode flag %s: %w", f.ID, err)
		}
	}

	key := from.Format("2006-01-02") + ".jsonl"
	if e.Prefix != "" {
		key = e.Prefix + "/" + key
	}
	url, err := e.Uploader.Upload(ctx, key, buf.Bytes(), "application/x-ndjson")
	if err != nil {
		return "", err
	}
	logger.Info().Int("flags", len(flags)).Str("url", url).Msg("📦 Audit export uploaded")
	return url, nil
}
