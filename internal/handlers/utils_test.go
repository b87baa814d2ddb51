package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnp-portal/apiserver/internal/apperr"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: 10, wantOffset: 0},
		{name: "explicit", query: "?page=3&limit=25", wantPage: 3, wantLimit: 25, wantOffset: 50},
		{name: "limit clamped", query: "?limit=500", wantPage: 1, wantLimit: 100, wantOffset: 0},
		{name: "zero page", query: "?page=0", wantErr: true},
		{name: "negative limit", query: "?limit=-1", wantErr: true},
		{name: "garbage page", query: "?page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/jobs"+tt.query, nil)
			page, limit, offset, err := parsePagination(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := newPagination(2, 10, 45)
	assert.Equal(t, 5, p.TotalPages)

	p = newPagination(1, 10, 0)
	assert.Equal(t, 0, p.TotalPages)

	p = newPagination(1, 10, 10)
	assert.Equal(t, 1, p.TotalPages)
}

func TestWriteErrorEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, apperr.Validation("invalid job payload", []apperr.FieldError{
		{Field: "title", Message: "title is required"},
	}))

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Message   string              `json:"message"`
			Code      string              `json:"code"`
			Details   []map[string]string `json:"details"`
			Timestamp string              `json:"timestamp"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	assert.False(t, envelope.Success)
	assert.Equal(t, "BAD_REQUEST", envelope.Error.Code)
	assert.Equal(t, "invalid job payload", envelope.Error.Message)
	require.Len(t, envelope.Error.Details, 1)
	assert.Equal(t, "title", envelope.Error.Details[0]["field"])
	assert.NotEmpty(t, envelope.Error.Timestamp)
}

func TestWriteErrorHidesInternals(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, assert.AnError)

	assert.Equal(t, 500, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Contains(t, w.Body.String(), "INTERNAL")
}

func TestWriteDataEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	writeData(w, 201, map[string]int{"id": 7}, "created")

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
		Message string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	assert.Equal(t, 201, w.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, 7, envelope.Data["id"])
	assert.Equal(t, "created", envelope.Message)
}

func TestWriteListEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	writeList(w, []int{1, 2, 3}, newPagination(1, 10, 3))

	var envelope struct {
		Success    bool       `json:"success"`
		Data       []int      `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	assert.Len(t, envelope.Data, 3)
	assert.Equal(t, 3, envelope.Pagination.Total)
	assert.Equal(t, 1, envelope.Pagination.TotalPages)
}
