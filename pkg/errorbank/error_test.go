package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err      *AppError
		wantHTTP int
		wantGRPC codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Conflict("busy"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("gone"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("nope"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.wantHTTP, tt.err.StatusCode())
			assert.Equal(t, tt.wantGRPC, tt.err.GRPCCode())
		})
	}
}

func TestFrom(t *testing.T) {
	appErr := Conflict("busy")
	assert.Same(t, appErr, From(appErr))
	assert.Same(t, appErr, From(fmt.Errorf("wrapped: %w", appErr)))
	assert.Nil(t, From(nil))

	wrapped := From(errors.New("boom"))
	require.NotNil(t, wrapped)
	assert.Equal(t, KindInternal, wrapped.Kind())
}

func TestIsKind(t *testing.T) {
	err := NotFound("gone")
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.True(t, IsKind(fmt.Errorf("ctx: %w", err), KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindInternal))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestUnwrapAndDetails(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("failed", WithCause(cause), WithDetail("order_id", int64(7)))

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, int64(7), err.Details()["order_id"])
	assert.Contains(t, err.Error(), "db down")
}
