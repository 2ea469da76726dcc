package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	logger *zap.Logger
}

func NewMemgraphDriver(ctx context.Context, uri, username, password string, logger *zap.Logger) (*MemgraphDriver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify memgraph connectivity: %w", err)
	}

	logger.Info("connected to memgraph", zap.String("uri", uri))
	return &MemgraphDriver{Driver: driver, logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Prediction(id);",
		"CREATE INDEX ON :Prediction(created_at);",
		"CREATE INDEX ON :User(username);",
		"CREATE CONSTRAINT ON (u:User) ASSERT u.username IS UNIQUE;",
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// index may already exist
			d.logger.Warn("failed to create index", zap.String("query", q), zap.Error(err))
		}
	}
	return nil
}

// MemgraphStore is a RecordStore over any GraphDriver.
type MemgraphStore struct {
	Driver GraphDriver
}

func NewMemgraphStore(d GraphDriver) *MemgraphStore {
	return &MemgraphStore{Driver: d}
}

func (s *MemgraphStore) Close(ctx context.Context) error {
	return s.Driver.Close(ctx)
}

func (s *MemgraphStore) CreatePrediction(ctx context.Context, rec model.PredictionRecord) error {
	link, err := json.Marshal(rec.ScoreMap)
	if err != nil {
		return fmt.Errorf("encode score map: %w", err)
	}

	params := map[string]interface{}{
		"id":          rec.ID,
		"tree_id":     rec.TreeID,
		"tree_desc":   rec.TreeDescription,
		"tree_author": rec.TreeAuthor,
		"link":        string(link),
		"last_image":  rec.LastImage,
		"created_at":  rec.CreatedAt.UTC().UnixNano(),
	}

	res, err := s.Driver.ExecuteQuery(ctx, SavePredictionQuery, params)
	if err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("prediction %s: %w", rec.ID, ErrConflict)
	}
	return nil
}

func (s *MemgraphStore) ListPredictions(ctx context.Context) ([]model.PredictionRecord, error) {
	res, err := s.Driver.ExecuteQuery(ctx, ListPredictionsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	out := make([]model.PredictionRecord, 0, len(res.Records))
	for _, r := range res.Records {
		rec, err := predictionFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemgraphStore) GetPrediction(ctx context.Context, id string) (model.PredictionRecord, error) {
	res, err := s.Driver.ExecuteQuery(ctx, GetPredictionQuery, map[string]interface{}{"id": id})
	if err != nil {
		return model.PredictionRecord{}, fmt.Errorf("get prediction: %w", err)
	}
	if len(res.Records) == 0 {
		return model.PredictionRecord{}, fmt.Errorf("prediction %s: %w", id, ErrNotFound)
	}
	return predictionFromRecord(res.Records[0])
}

func (s *MemgraphStore) DeletePrediction(ctx context.Context, id string) error {
	res, err := s.Driver.ExecuteQuery(ctx, DeletePredictionQuery, map[string]interface{}{"id": id})
	if err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("prediction %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MemgraphStore) CreateUser(ctx context.Context, u model.User) error {
	params := map[string]interface{}{
		"id":            u.ID,
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"created_at":    u.CreatedAt.UTC().UnixNano(),
	}
	res, err := s.Driver.ExecuteQuery(ctx, SaveUserQuery, params)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("user %s: %w", u.Username, ErrConflict)
	}
	return nil
}

func (s *MemgraphStore) GetUserByName(ctx context.Context, username string) (model.User, error) {
	res, err := s.Driver.ExecuteQuery(ctx, GetUserByNameQuery, map[string]interface{}{"username": username})
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	if len(res.Records) == 0 {
		return model.User{}, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}

	r := res.Records[0]
	return model.User{
		ID:           stringProp(r, "id"),
		Username:     stringProp(r, "username"),
		PasswordHash: stringProp(r, "password_hash"),
		CreatedAt:    time.Unix(0, intProp(r, "created_at")).UTC(),
	}, nil
}

func predictionFromRecord(r *neo4j.Record) (model.PredictionRecord, error) {
	rec := model.PredictionRecord{
		ID:              stringProp(r, "id"),
		TreeID:          stringProp(r, "tree_id"),
		TreeDescription: stringProp(r, "tree_desc"),
		TreeAuthor:      stringProp(r, "tree_author"),
		LastImage:       stringProp(r, "last_image"),
		CreatedAt:       time.Unix(0, intProp(r, "created_at")).UTC(),
	}

	m, err := model.ParseScoreMap(json.RawMessage(stringProp(r, "link")))
	if err != nil {
		return rec, fmt.Errorf("decode score map of %s: %w", rec.ID, err)
	}
	rec.ScoreMap = m
	return rec, nil
}

func stringProp(r *neo4j.Record, key string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intProp(r *neo4j.Record, key string) int64 {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
