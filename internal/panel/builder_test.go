package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SequentialNumbering(t *testing.T) {
	b := NewBuilder()

	first, err := b.Accordion("panel", "Parks", "/icons/park.png", `<div id="parks"></div>`)
	require.NoError(t, err)
	second, err := b.Overlay("panel", "Trails", "/icons/trail.png", `<div id="trails"></div>`)
	require.NoError(t, err)

	assert.Contains(t, first, `id="heading1"`)
	assert.Contains(t, first, `id="collapse1"`)
	assert.Contains(t, second, `id="heading2"`)
	assert.Contains(t, second, `data-target="#collapse2"`)
	assert.Equal(t, 2, b.Count())
}

func TestBuilder_AccordionMarkup(t *testing.T) {
	b := NewBuilder()
	out, err := b.Accordion("panel", "Parks", "/icons/park.png", `<div id="parks"></div>`)
	require.NoError(t, err)

	assert.Contains(t, out, `data-select-layer="Parks"`)
	assert.Contains(t, out, `data-parent="#panel"`)
	assert.Contains(t, out, `<img src="/icons/park.png">`)
	assert.Contains(t, out, `<div id="parks"></div>`, "body is inserted verbatim")
}

func TestBuilder_EscapesLayerName(t *testing.T) {
	b := NewBuilder()
	out, err := b.Accordion("panel", `Rock & "Roll"`, "/i.png", "")
	require.NoError(t, err)
	assert.Contains(t, out, `data-select-layer="Rock &amp; &#34;Roll&#34;"`)
	assert.NotContains(t, out, `"Roll"`)
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder()

	out, err := b.Build("", "panel", "Parks", "/i.png", "")
	require.NoError(t, err)
	assert.Contains(t, out, `<h2 class="mb-0">`)

	out, err = b.Build(StyleOverlay, "panel", "Parks", "/i.png", "")
	require.NoError(t, err)
	assert.Contains(t, out, `title="Parks"`)

	_, err = b.Build("carousel", "panel", "Parks", "/i.png", "")
	assert.Error(t, err)
	assert.Equal(t, 2, b.Count())
}
