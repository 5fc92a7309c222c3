package assemble

import (
	"image"
	"testing"

	"github.com/gaurav-prasanna/framedoc/core"
	"github.com/gaurav-prasanna/framedoc/core/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(seq, index int, rate float64, w, h int) core.SampledFrame {
	return core.SampledFrame{
		RawFrame: core.RawFrame{
			Index:     index,
			Timestamp: float64(index) / rate,
			Image:     image.NewRGBA(image.Rect(0, 0, w, h)),
		},
		Sequence: seq,
	}
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "Frame 1 - Time: 0.00 seconds", Caption(1, 0))
	assert.Equal(t, "Frame 4 - Time: 90.00 seconds", Caption(4, 90))
	assert.Equal(t, "Frame 12 - Time: 30.03 seconds", Caption(12, 900/29.97))
}

func TestDefaultGeometryAvailableArea(t *testing.T) {
	w, h := DefaultGeometry().Available()
	assert.InDelta(t, 781.89, w, 1e-9)
	assert.InDelta(t, 445.28, h, 1e-9)
}

func TestAssembleOnePagePerFrameInOrder(t *testing.T) {
	a, err := New(DefaultGeometry(), layout.Engine{AllowUpscale: true})
	require.NoError(t, err)

	frames := []core.SampledFrame{
		frame(1, 0, 30, 1920, 1080),
		frame(2, 900, 30, 1920, 1080),
		frame(3, 1800, 30, 640, 480),
		frame(4, 2700, 30, 1080, 1920),
	}
	doc, err := a.Assemble("Lecture", frames)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 4)
	assert.Equal(t, "Lecture", doc.Title)
	assert.Equal(t, "Frame 1 - Time: 0.00 seconds", doc.Pages[0].Caption)
	assert.Equal(t, "Frame 2 - Time: 30.00 seconds", doc.Pages[1].Caption)
	assert.Equal(t, "Frame 3 - Time: 60.00 seconds", doc.Pages[2].Caption)
	assert.Equal(t, "Frame 4 - Time: 90.00 seconds", doc.Pages[3].Caption)

	availW, availH := DefaultGeometry().Available()
	region := DefaultGeometry().ImageRegion()
	for i, p := range doc.Pages {
		assert.Equal(t, frames[i].Index, p.Frame.Index)
		assert.LessOrEqual(t, p.Placement.DrawWidth, availW+1e-9)
		assert.LessOrEqual(t, p.Placement.DrawHeight, availH+1e-9)
		assert.GreaterOrEqual(t, p.Placement.X, region.X-1e-9)
		assert.GreaterOrEqual(t, p.Placement.Y, region.Y-1e-9)
		assert.InDelta(t,
			float64(p.Frame.Width())/float64(p.Frame.Height()),
			p.Placement.DrawWidth/p.Placement.DrawHeight, 1e-9)
	}
}

func TestAssembleKeepsDuplicates(t *testing.T) {
	a, err := New(DefaultGeometry(), layout.Engine{AllowUpscale: true})
	require.NoError(t, err)

	f := frame(1, 0, 30, 320, 240)
	g := f
	g.Sequence = 2
	doc, err := a.Assemble("dup", []core.SampledFrame{f, g})
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 2)
}

func TestAssembleEmptyInput(t *testing.T) {
	a, err := New(DefaultGeometry(), layout.Engine{})
	require.NoError(t, err)

	doc, err := a.Assemble("nothing", nil)
	assert.ErrorIs(t, err, core.ErrEmptyInput)
	assert.Nil(t, doc)
}

func TestAssembleRejectsBrokenFrame(t *testing.T) {
	a, err := New(DefaultGeometry(), layout.Engine{})
	require.NoError(t, err)

	bad := core.SampledFrame{Sequence: 1}
	_, err = a.Assemble("bad", []core.SampledFrame{bad})
	assert.ErrorIs(t, err, core.ErrInvalidDimensions)
}

func TestNewRejectsGeometryWithoutImageArea(t *testing.T) {
	g := DefaultGeometry()
	g.CaptionHeight = 600
	_, err := New(g, layout.Engine{})
	assert.ErrorIs(t, err, core.ErrInvalidDimensions)
}
