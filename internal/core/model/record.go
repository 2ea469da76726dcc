package model

import "time"

type PredictionRecord struct {
	ID              string    `json:"_id"`
	TreeID          string    `json:"treeId"`
	TreeDescription string    `json:"treeDesc,omitempty"`
	TreeAuthor      string    `json:"treeAuthor,omitempty"`
	ScoreMap        ScoreMap  `json:"link"`
	LastImage       string    `json:"lastImage"` // base64, no data URL prefix
	CreatedAt       time.Time `json:"createdAt"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
