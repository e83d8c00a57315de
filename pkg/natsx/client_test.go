package natsx

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestServerURL(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		t.Setenv("NATS_URL", "nats://env:4222")
		assert.Equal(t, "nats://explicit:4222", ServerURL("nats://explicit:4222"))
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("NATS_URL", "nats://env:4222")
		assert.Equal(t, "nats://env:4222", ServerURL(""))
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("NATS_URL", "")
		assert.Equal(t, nats.DefaultURL, ServerURL(""))
	})
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient("nats://127.0.0.1:1", nats.Name(ClientName), nats.Timeout(100*time.Millisecond))
	assert.Error(t, err)
}
