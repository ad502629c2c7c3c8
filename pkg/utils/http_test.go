package utils_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvshop/marketplace-service/pkg/utils"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		total      int
		totalPages int
	}{
		{name: "exact division", page: 1, limit: 10, total: 100, totalPages: 10},
		{name: "partial last page", page: 2, limit: 10, total: 101, totalPages: 11},
		{name: "empty result", page: 1, limit: 10, total: 0, totalPages: 0},
		{name: "single item", page: 1, limit: 20, total: 1, totalPages: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := utils.NewPagination(tc.page, tc.limit, tc.total)
			assert.Equal(t, tc.page, p.CurrentPage)
			assert.Equal(t, tc.totalPages, p.TotalPages)
			assert.Equal(t, tc.total, p.TotalItems)
			assert.Equal(t, tc.limit, p.ItemsPerPage)
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, utils.WriteSuccess(rec, map[string]string{"id": "1"}, "created", 201))

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "created", res.Message)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, utils.WriteError(rec, "Order not found", 404))

	assert.Equal(t, 404, rec.Code)

	var res utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "Order not found", res.Message)
	assert.Empty(t, res.Errors)
}
