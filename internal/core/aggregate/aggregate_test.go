package aggregate

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, link string) model.PredictionRecord {
	t.Helper()
	var m model.ScoreMap
	require.NoError(t, json.Unmarshal([]byte(link), &m))
	return model.PredictionRecord{ScoreMap: m}
}

func TestAggregate_SumsAndSkipsNonNumeric(t *testing.T) {
	records := []model.PredictionRecord{
		record(t, `{"A": 3, "B": "x"}`),
		record(t, `{"A": 2}`),
	}

	got := Aggregate(records)

	assert.Equal(t, []model.AggregateEntry{{Name: "A", Value: 5}}, got)
}

func TestAggregate_SortedDescendingStableOnTies(t *testing.T) {
	records := []model.PredictionRecord{
		record(t, `{"Fe": 1, "Zn": 2, "HLB": 0.5}`),
		record(t, `{"HLB": 1.5, "Mg": 3}`),
	}

	got := Aggregate(records)

	// Zn and HLB both total 2; Zn was seen first.
	assert.Equal(t, []model.AggregateEntry{
		{Name: "Mg", Value: 3},
		{Name: "Zn", Value: 2},
		{Name: "HLB", Value: 2},
		{Name: "Fe", Value: 1},
	}, got)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Value, got[i].Value)
	}
}

func TestAggregate_NumericStringsAndEmptyKeys(t *testing.T) {
	records := []model.PredictionRecord{
		record(t, `{"A": "1.5", "": 9, " ": 4, "B": null, "C": true}`),
		record(t, `{"A": 1}`),
	}

	got := Aggregate(records)

	assert.Equal(t, []model.AggregateEntry{{Name: "A", Value: 2.5}}, got)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]model.PredictionRecord{record(t, `{}`)}))
}

func TestTopK(t *testing.T) {
	records := []model.PredictionRecord{
		record(t, `{"A": 1, "B": 2, "C": 3, "D": 4}`),
	}

	top := TopK(records, 3)
	assert.Len(t, top, 3)
	assert.Equal(t, "D", top[0].Name)

	few := TopK([]model.PredictionRecord{record(t, `{"A": 1, "B": 2}`)}, 3)
	assert.Len(t, few, 2)

	assert.Empty(t, TopK(records, 0))
	assert.Len(t, TopK(records, 10), 4)
}

func TestTopPrediction(t *testing.T) {
	name, v, ok := TopPrediction(record(t, `{"A": 2, "B": 5, "C": 5, "D": "x"}`).ScoreMap)
	assert.True(t, ok)
	assert.Equal(t, "B", name)
	assert.Equal(t, 5.0, v)

	_, _, ok = TopPrediction(record(t, `{}`).ScoreMap)
	assert.False(t, ok)

	_, _, ok = TopPrediction(record(t, `{"A": "x"}`).ScoreMap)
	assert.False(t, ok)

	name, _, ok = TopPrediction(record(t, `{"A": -3, "B": -1}`).ScoreMap)
	assert.True(t, ok)
	assert.Equal(t, "B", name)
}

func TestEntries(t *testing.T) {
	got := Entries(record(t, `{"A": 1, "B": 3, "C": "bad"}`).ScoreMap)
	assert.Equal(t, []model.AggregateEntry{{Name: "B", Value: 3}, {Name: "A", Value: 1}}, got)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 33.33, Percentage(1, 3))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 100.0, Percentage(5, 5))
	assert.True(t, math.IsNaN(Percentage(0, 0)))
	assert.True(t, math.IsInf(Percentage(1, 0), 1))
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 6.0, Total([]model.AggregateEntry{{Value: 1}, {Value: 2}, {Value: 3}}))
	assert.Equal(t, 0.0, Total(nil))
}
