package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"loyalty-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomainStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&model.ValidationError{Field: "value", Message: "value is required"}, http.StatusBadRequest},
		{model.ErrNotAuthenticated, http.StatusUnauthorized},
		{&model.RemoteError{Op: model.OpPull, Err: errors.New("timeout")}, http.StatusBadGateway},
		{&model.CaptureError{Reason: "permission denied"}, http.StatusBadRequest},
		{fmt.Errorf("delete: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrSyncInProgress, http.StatusConflict},
		{model.ErrSyncDisabled, http.StatusServiceUnavailable},
		{errors.New("something else"), http.StatusInternalServerError},
		{NotFound("gone"), http.StatusNotFound},
	}
	for _, tc := range cases {
		got := FromDomain(tc.err)
		require.NotNil(t, got, tc.err.Error())
		assert.Equal(t, tc.code, got.StatusCode, tc.err.Error())
	}
	assert.Nil(t, FromDomain(nil))
}

func TestValidationDetails(t *testing.T) {
	got := FromDomain(&model.ValidationError{Field: "nickname", Message: "nickname is required"})
	require.Len(t, got.Details, 1)
	assert.Equal(t, "nickname", got.Details[0].Field)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(got.ToJSON(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]interface{})["code"])
}
