package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	h := NewHealth(time.Second).
		Register("postgres", PingFunc(func(context.Context) error { return nil })).
		Register("redis", PingFunc(func(context.Context) error { return errors.New("connection refused") }))

	status, ok := h.Check(context.Background())

	assert.False(t, ok)
	assert.Equal(t, "ok", status["postgres"])
	assert.Equal(t, "connection refused", status["redis"])
}

func TestHealthCheckAllHealthy(t *testing.T) {
	h := NewHealth(time.Second).Register("postgres", PingFunc(func(context.Context) error { return nil }))

	_, ok := h.Check(context.Background())
	assert.True(t, ok)
}
