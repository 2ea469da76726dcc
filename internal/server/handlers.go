package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atanuroy911/drorange-webapp/internal/auth"
	"github.com/atanuroy911/drorange-webapp/internal/core"
	"github.com/atanuroy911/drorange-webapp/internal/core/model"
	"github.com/atanuroy911/drorange-webapp/internal/core/report"
	"github.com/atanuroy911/drorange-webapp/internal/driver"
	"github.com/atanuroy911/drorange-webapp/internal/locale"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	_, err := s.Gate.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
	case errors.Is(err, auth.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing fields"})
	case err != nil:
		s.Logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
	}
}

func (s *Server) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	token, err := s.Gate.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		s.Logger.Error("failed to log in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	s.Gate.SetCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

func (s *Server) Logout(c *gin.Context) {
	s.Gate.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// flexString accepts a JSON string or number.
func flexString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstOf(body map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := body[k]; ok {
			return v
		}
	}
	return nil
}

func (s *Server) Ingest(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
		return
	}

	req := core.IngestRequest{
		Link:       body["link"],
		TreeID:     flexString(firstOf(body, "Tree ID", "treeId")),
		TreeDesc:   flexString(firstOf(body, "Tree Desc", "treeDesc")),
		TreeAuthor: flexString(firstOf(body, "Tree Author", "treeAuthor")),
		LastImage:  flexString(body["lastImage"]),
	}

	rec, err := s.Dashboard.Ingest(c.Request.Context(), req)
	switch {
	case errors.Is(err, core.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing fields"})
	case errors.Is(err, core.ErrInvalidLink):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid link format"})
	case err != nil:
		s.Logger.Error("failed to save prediction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal Server Error"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "prediction": rec})
	}
}

func (s *Server) ListPredictions(c *gin.Context) {
	records, err := s.Dashboard.List(c.Request.Context())
	if err != nil {
		s.Logger.Error("failed to list predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal Server Error"})
		return
	}
	if records == nil {
		records = []model.PredictionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "predictions": records})
}

func (s *Server) DeletePrediction(c *gin.Context) {
	err := s.Dashboard.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, driver.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Prediction not found"})
	case err != nil:
		s.Logger.Error("failed to delete prediction", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete prediction"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Prediction deleted successfully"})
	}
}

func (s *Server) PredictionQR(c *gin.Context) {
	url, err := s.Dashboard.QR(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, driver.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Prediction not found"})
	case err != nil:
		s.Logger.Warn("failed to encode qr", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "QR Code Error"})
	default:
		c.JSON(http.StatusOK, gin.H{"qr": url})
	}
}

func (s *Server) view(c *gin.Context) locale.ViewState {
	return s.Dashboard.ViewState(c.Query("locale"), c.GetHeader("Accept-Language"))
}

type chartUpload struct {
	Chart string `json:"chart"`
}

// chartPNG reads an optional client rendered chart from the request body.
func chartPNG(c *gin.Context) ([]byte, error) {
	if c.Request.Method != http.MethodPost || c.Request.ContentLength == 0 {
		return nil, nil
	}
	var req chartUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	data := strings.TrimSpace(req.Chart)
	if data == "" {
		return nil, nil
	}
	if i := strings.Index(data, ";base64,"); i >= 0 {
		data = data[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(data)
}

// attach sends art as a download. Non-ASCII names go out as an RFC 2231
// filename* parameter.
func attach(c *gin.Context, art core.Artifact) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, art.ContentType, art.Data)
}

func (s *Server) RecordReport(c *gin.Context) {
	chart, err := chartPNG(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid chart image"})
		return
	}

	art, err := s.Dashboard.RecordReport(c.Request.Context(), s.view(c), c.Param("id"), chart)
	switch {
	case errors.Is(err, driver.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Prediction not found"})
	case err != nil:
		s.Logger.Error("failed to build record report", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate report"})
	default:
		attach(c, art)
	}
}

func (s *Server) AggregateReport(c *gin.Context) {
	chart, err := chartPNG(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid chart image"})
		return
	}

	art, err := s.Dashboard.AggregateReport(c.Request.Context(), s.view(c), chart)
	switch {
	case errors.Is(err, report.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "no_data_to_generate_report"})
	case err != nil:
		s.Logger.Error("failed to build aggregate report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate report"})
	default:
		attach(c, art)
	}
}

func (s *Server) Analysis(c *gin.Context) {
	k := 3
	if v := c.Query("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "k must be a positive integer"})
			return
		}
		k = n
	}

	a, err := s.Dashboard.Analysis(c.Request.Context(), k)
	if err != nil {
		s.Logger.Error("failed to analyze predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) ExportCSV(c *gin.Context) {
	art, ok, err := s.Dashboard.ExportCSV(c.Request.Context(), s.view(c))
	if err != nil {
		s.Logger.Error("failed to export predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal Server Error"})
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	attach(c, art)
}

func (s *Server) CatalogLookup(c *gin.Context) {
	state := s.view(c)
	entry, ok, err := s.Dashboard.LookupClass(state, c.Param("class"))
	if err != nil {
		s.Logger.Warn("catalog unavailable", zap.String("locale", state.Locale), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"message": "Catalog not available"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Class not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locale": state.Locale, "entry": entry})
}
