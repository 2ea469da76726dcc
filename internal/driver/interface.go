package driver

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

// RecordStore persists prediction records and dashboard users.
type RecordStore interface {
	CreatePrediction(ctx context.Context, rec model.PredictionRecord) error
	// ListPredictions returns every record, newest first.
	ListPredictions(ctx context.Context) ([]model.PredictionRecord, error)
	GetPrediction(ctx context.Context, id string) (model.PredictionRecord, error)
	DeletePrediction(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u model.User) error
	GetUserByName(ctx context.Context, username string) (model.User, error)

	Close(ctx context.Context) error
}
