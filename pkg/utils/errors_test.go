package utils

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorCarriesCodeAndMessage(t *testing.T) {
	err := NewError(ErrBadRequest.Code, "Text is required")
	require.Error(t, err)

	var ce *CustomError
	require.True(t, As(err, &ce))
	assert.Equal(t, 400, ce.Code)
	assert.Equal(t, "Text is required", ce.Message)
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(cause, ErrInternalServerError.Code, "Failed to fetch feed")

	var ce *CustomError
	require.True(t, As(err, &ce))
	assert.Equal(t, 500, ce.Code)
	assert.Equal(t, "connection refused", ce.Details)
}

func TestWrapStoreErrorClassifiesConnectivity(t *testing.T) {
	assert.True(t, IsCode(WrapStoreError(driver.ErrBadConn, "Failed to fetch feed"), 503))
	assert.True(t, IsCode(WrapStoreError(context.DeadlineExceeded, "Failed to fetch feed"), 503))
	assert.True(t, IsCode(WrapStoreError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, "Failed to fetch feed"), 503))
	assert.True(t, IsCode(WrapStoreError(errors.New("deadlock detected"), "Failed to fetch feed"), 500))
}

func TestIsCode(t *testing.T) {
	err := NewError(ErrNotFound.Code, "Thread not found")
	assert.True(t, IsCode(err, 404))
	assert.False(t, IsCode(err, 400))
	assert.False(t, IsCode(errors.New("plain"), 404))
	assert.False(t, IsCode(nil, 404))
}
