package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/tablehub/errs"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("table 3: %w", errs.ErrNotFound), http.StatusNotFound},
		{errs.ErrInvalidArgument, http.StatusBadRequest},
		{errs.ErrUnauthorized, http.StatusUnauthorized},
		{errs.ErrInvalidTransition, http.StatusConflict},
		{errs.ErrNotOccupied, http.StatusConflict},
		{errs.ErrDestinationUnavailable, http.StatusConflict},
		{errs.ErrLightNotSupported, http.StatusConflict},
		{errs.ErrStorageConflict, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestRespondDomainErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitLogger("panic")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/tables", nil)

	RespondDomainError(c, errors.New("dsn password=hunter2"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Status)
	assert.Equal(t, "internal server error", resp.Message)
}
