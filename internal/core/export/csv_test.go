package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
)

var at = time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

func TestToDelimitedText_Empty(t *testing.T) {
	out, ok, err := ToDelimitedText(nil, locale.New("en", time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestToDelimitedText_Rows(t *testing.T) {
	recs := []model.PredictionRecord{
		{TreeID: "T1", ScoreMap: model.NewScoreMap(model.Num("HLB", 0.5)), CreatedAt: at},
		{TreeID: "T2", ScoreMap: model.ScoreMap{}, CreatedAt: at},
	}
	out, ok, err := ToDelimitedText(recs, locale.New("cn", time.UTC))
	require.NoError(t, err)
	require.True(t, ok)

	want := "Tree ID,Created At,Link Data\n" +
		"T1,2024/3/7 14:05:09,\"{\"\"HLB\"\":0.5}\"\n" +
		"T2,2024/3/7 14:05:09,{}\n"
	assert.Equal(t, want, string(out))
}

func TestToDelimitedText_QuotingRoundTrips(t *testing.T) {
	recs := []model.PredictionRecord{{
		TreeID:    `Row 3, "north"` + "\nedge",
		ScoreMap:  model.NewScoreMap(model.Num("Red, Scale", 1), model.Num("HLB", 2)),
		CreatedAt: at,
	}}
	out, ok, err := ToDelimitedText(recs, locale.New("en", time.UTC))
	require.NoError(t, err)
	require.True(t, ok)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, recs[0].TreeID, rows[1][0])
	assert.Equal(t, "3/7/2024 2:05:09 PM", rows[1][1])
	assert.Equal(t, `{"Red, Scale":1,"HLB":2}`, rows[1][2])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "predictions_2024-03-07T14-05-09Z.csv", Filename(at))
}
