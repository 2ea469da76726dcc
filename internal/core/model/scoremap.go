package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Score is one classifier output. Raw holds the value exactly as it was
// received so non-numeric readings survive storage round trips.
type Score struct {
	Name string
	Raw  json.RawMessage
}

// Numeric reports the score as a finite number. JSON numbers and strings
// holding a number count; everything else is ignored by aggregation.
func (s Score) Numeric() (float64, bool) {
	raw := bytes.TrimSpace(s.Raw)
	if len(raw) == 0 {
		return 0, false
	}

	var v float64
	switch raw[0] {
	case '"':
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return 0, false
		}
		v = f
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ScoreMap maps class names to scores and keeps the order in which keys
// were first seen. A repeated key replaces the value in place.
type ScoreMap struct {
	entries []Score
	index   map[string]int
}

// NewScoreMap builds a map from numeric pairs in the given order.
func NewScoreMap(pairs ...Score) ScoreMap {
	var m ScoreMap
	for _, p := range pairs {
		m.SetRaw(p.Name, p.Raw)
	}
	return m
}

// Num is shorthand for a numeric Score.
func Num(name string, v float64) Score {
	raw, _ := json.Marshal(v)
	return Score{Name: name, Raw: raw}
}

// Set stores a numeric value.
func (m *ScoreMap) Set(name string, v float64) {
	s := Num(name, v)
	m.SetRaw(name, s.Raw)
}

// SetRaw stores an arbitrary JSON value.
func (m *ScoreMap) SetRaw(name string, raw json.RawMessage) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	cp := append(json.RawMessage(nil), raw...)
	if i, ok := m.index[name]; ok {
		m.entries[i].Raw = cp
		return
	}
	m.index[name] = len(m.entries)
	m.entries = append(m.entries, Score{Name: name, Raw: cp})
}

// Get returns the raw score for name.
func (m ScoreMap) Get(name string) (Score, bool) {
	i, ok := m.index[name]
	if !ok {
		return Score{}, false
	}
	return m.entries[i], true
}

// Len is the number of keys, numeric or not.
func (m ScoreMap) Len() int {
	return len(m.entries)
}

// Scores returns the entries in insertion order.
func (m ScoreMap) Scores() []Score {
	out := make([]Score, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m ScoreMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(bytes.TrimSpace(s.Raw)) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(s.Raw)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a JSON object only. Key order is preserved.
func (m *ScoreMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read score map: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("score map must be a JSON object")
	}

	var out ScoreMap
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read score key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected score key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("read score %q: %w", key, err)
		}
		out.SetRaw(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("close score map: %w", err)
	}

	*m = out
	return nil
}

// ParseScoreMap decodes the ingestion "link" field, which may be a JSON
// object or a string holding one.
func ParseScoreMap(raw json.RawMessage) (ScoreMap, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return ScoreMap{}, err
		}
		raw = []byte(inner)
	}
	var m ScoreMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return ScoreMap{}, err
	}
	return m, nil
}
