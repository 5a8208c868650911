package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorStatus(t *testing.T) {
	tests := map[string]int{
		ErrCodeValidation:   http.StatusBadRequest,
		ErrCodeInvalidCard:  http.StatusBadRequest,
		ErrCodeUnauthorized: http.StatusUnauthorized,
		ErrCodeNotFound:     http.StatusNotFound,
		ErrCodeRateLimited:  http.StatusTooManyRequests,
		ErrCodeCanceled:     StatusClientClosedRequest,
		ErrCodeAnalysis:     http.StatusBadGateway,
		"SOMETHING_NEW":     http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, NewAppError(code, "msg").Status(), code)
	}
}

func TestSendError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendError(c, NewAppError(ErrCodeInvalidCard, "Card cannot be analyzed", "matchup 2: no moneylines"))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CARD: Card cannot be analyzed - matchup 2: no moneylines", resp.Error.Error())
}

func TestSendPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendPage(c, []string{"a", "b"}, 20, 2)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":["a","b"],"meta":{"limit":20,"count":2}}`, w.Body.String())
}
