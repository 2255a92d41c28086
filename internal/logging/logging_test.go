package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsSilent(t *testing.T) {
	assert.False(t, L().Enabled(t.Context(), slog.LevelError))
}

func TestSetAndRestore(t *testing.T) {
	var buf bytes.Buffer
	Set(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer Set(nil)

	For("warp").Debug("quad skipped", "row", 1)
	assert.Contains(t, buf.String(), "component=warp")
	assert.Contains(t, buf.String(), "quad skipped")

	Set(nil)
	assert.False(t, L().Enabled(t.Context(), slog.LevelError))
}
