package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, log.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, log.InfoLevel, ParseLevel("verbose"))
}

func TestSetupWriter(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWriter(&buf, "warn")
	assert.Same(t, l, L())

	l.Info("hidden")
	l.Warn("layer failed", "layer", "Parks")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "layer failed")
	assert.Contains(t, out, "layer=Parks")
}
