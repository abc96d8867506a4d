package mdns

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "_cuemark._tcp", ServiceType)
	assert.Equal(t, "v1", APIVersion)
	assert.NotEmpty(t, ServerVersion)
}

func TestStopBeforeStart(t *testing.T) {
	s := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
	// Must not panic.
	s.Stop()
	s.Stop()
}
