package report

import (
	"regexp"
	"strings"
	"time"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
)

var spaceRun = regexp.MustCompile(`\s+`)

// RecordFilename is "<treeId>-<date>-<time>.pdf" in the view's date
// format, with '/' and ':' turned into '-' and whitespace runs into '_'.
func RecordFilename(state locale.ViewState, rec model.PredictionRecord) string {
	name := rec.TreeID + "-" + state.FormatDate(rec.CreatedAt) + "-" + state.FormatTime(rec.CreatedAt)
	name = strings.NewReplacer("/", "-", ":", "-").Replace(name)
	return spaceRun.ReplaceAllString(name, "_") + ".pdf"
}

// AggregateFilename uses the UTC date of now.
func AggregateFilename(now time.Time) string {
	return "Garden_Aggregate_Report_" + now.UTC().Format("2006_01_02") + ".pdf"
}
