package response

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mmotors/backoffice/internal/app"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   int
	}{
		{app.ErrInvalidInput, 400, CodeBadRequest},
		{app.ErrNotFound, 404, CodeNotFound},
		{app.ErrForbidden, 403, CodeForbidden},
		{app.ErrConflict, 409, CodeConflict},
		{app.ErrInvalidTransition, 422, CodeInvalidState},
		{fmt.Errorf("%w: create document chunks failed", app.ErrIngestionFailed), 500, CodeIngestionFailed},
		{fmt.Errorf("%w: connection refused", app.ErrBackendUnavailable), 502, CodeBackendUnavailable},
		{errors.New("boom"), 500, CodeInternalServer},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		FromError(c, tc.err, "fallback")

		require.Equal(t, tc.status, w.Code, tc.err)
		require.Contains(t, w.Body.String(), fmt.Sprintf(`"code":%d`, tc.code), tc.err)
	}

	// unrecognized errors must not leak their message
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, errors.New("sql: secret detail"), "fallback")
	require.NotContains(t, w.Body.String(), "secret")
	require.Contains(t, w.Body.String(), "fallback")
}
