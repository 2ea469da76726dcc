// Package export renders prediction records as delimited text.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
)

var Header = []string{"Tree ID", "Created At", "Link Data"}

// ToDelimitedText writes one CSV row per record after the header. ok is
// false, with no output, when records is empty.
func ToDelimitedText(records []model.PredictionRecord, state locale.ViewState) ([]byte, bool, error) {
	if len(records) == 0 {
		return nil, false, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, false, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		link, err := json.Marshal(rec.ScoreMap)
		if err != nil {
			return nil, false, fmt.Errorf("encode score map of %s: %w", rec.ID, err)
		}
		row := []string{rec.TreeID, state.FormatDateTime(rec.CreatedAt), string(link)}
		if err := w.Write(row); err != nil {
			return nil, false, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, false, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), true, nil
}

// Filename is "predictions_<RFC3339 UTC>.csv" with ':' made file-safe.
func Filename(now time.Time) string {
	return "predictions_" + strings.ReplaceAll(now.UTC().Format(time.RFC3339), ":", "-") + ".csv"
}
