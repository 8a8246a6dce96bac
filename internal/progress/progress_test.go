package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DisabledForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	bar := New(Options{Description: "downloading archive", Writer: &buf})

	assert.False(t, bar.Enabled())
	assert.NoError(t, bar.Add(3))
	assert.NoError(t, bar.Finish())
	assert.Empty(t, buf.String())
}

func TestNew_Disabled(t *testing.T) {
	var buf bytes.Buffer
	bar := New(Options{Description: "cleaning archive", Writer: &buf, Disabled: true, Force: true})

	assert.False(t, bar.Enabled())
	assert.NoError(t, bar.Add(1))
	assert.Empty(t, buf.String())
}

func TestNew_ForcedRendersDescription(t *testing.T) {
	var buf bytes.Buffer
	bar := New(Options{Description: "uploading data", Writer: &buf, Force: true})

	assert.True(t, bar.Enabled())
	assert.NoError(t, bar.Add(2))
	assert.NoError(t, bar.Finish())
	assert.Contains(t, buf.String(), "uploading data")
}

func TestFactory(t *testing.T) {
	var buf bytes.Buffer
	newBar := Factory(false, &buf)

	bar := newBar("downloading archive")

	assert.False(t, bar.Enabled())
	assert.Equal(t, "downloading archive", bar.desc)
}
