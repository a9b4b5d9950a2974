package serverutils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessResponseWithData(t *testing.T) {
	res := SuccessResponse("Success show document", map[string]string{"id": "abc"})

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"code":200,"message":"Success show document","data":{"id":"abc"}}`, string(body))
}

func TestSuccessResponseWithoutData(t *testing.T) {
	// Delete-style endpoints return the envelope with no payload
	res := SuccessResponse[any]("Success delete document", nil)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"code":200,"message":"Success delete document"}`, string(body))
}

func TestErrorResponse(t *testing.T) {
	res := ErrorResponse(404, "Document not found")

	assert.False(t, res.Success)
	assert.Equal(t, 404, res.Code)
	assert.Equal(t, "Document not found", res.Message)
}
