package images

import (
	"image"
	"testing"

	"github.com/nvr-ai/go-motion/motion"
	"github.com/nvr-ai/go-motion/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestExtractorIdenticalFrames(t *testing.T) {
	ext := NewExtractor()
	defer ext.Close()

	gen := test.NewFrameGenerator(320, 240).Grayscale()
	reference := gen.Static()
	defer reference.Close()
	current := gen.Static()
	defer current.Close()

	regions, err := ext.Extract(reference, current)
	require.NoError(t, err)
	assert.Empty(t, regions)
	assert.Equal(t, 0, gocv.CountNonZero(ext.Delta))
	assert.Equal(t, 0, gocv.CountNonZero(ext.Threshold))
}

func TestExtractorSubThresholdNoise(t *testing.T) {
	ext := NewExtractor()
	defer ext.Close()

	gen := test.NewFrameGenerator(320, 240).Grayscale()
	reference := gen.Static()
	defer reference.Close()
	current := gen.WithNoise(DifferenceThreshold)
	defer current.Close()

	regions, err := ext.Extract(reference, current)
	require.NoError(t, err)
	assert.Greater(t, gocv.CountNonZero(ext.Delta), 0)
	assert.Empty(t, regions, "a difference equal to the threshold is not a change")
}

func TestExtractorBlob(t *testing.T) {
	ext := NewExtractor()
	defer ext.Close()

	gen := test.NewFrameGenerator(320, 240).Grayscale()
	reference := gen.Static()
	defer reference.Close()
	blob := image.Rect(100, 100, 200, 200)
	current := gen.WithBlob(blob)
	defer current.Close()

	regions, err := ext.Extract(reference, current)
	require.NoError(t, err)
	require.Len(t, regions, 1)

	box := regions[0].Box
	assert.True(t, blob.In(box), "box %v must cover blob %v", box, blob)
	assert.True(t, box.In(blob.Inset(-2*DilateIterations)), "box %v grows at most by the dilation", box)
	assert.Greater(t, regions[0].Area, float64(blob.Dx()*blob.Dy()))
	assert.True(t, regions[0].Qualifies(motion.DefaultMinSizeForMovement))
}

func TestExtractorKeepsSmallRegions(t *testing.T) {
	ext := NewExtractor()
	defer ext.Close()

	gen := test.NewFrameGenerator(320, 240).Grayscale()
	reference := gen.Static()
	defer reference.Close()
	current := gen.WithBlob(image.Rect(20, 20, 30, 30))
	defer current.Close()

	regions, err := ext.Extract(reference, current)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Less(t, regions[0].Area, float64(motion.DefaultMinSizeForMovement))
	assert.Empty(t, motion.Qualifying(regions, motion.DefaultMinSizeForMovement))
}

func TestExtractorSeparateBlobs(t *testing.T) {
	ext := NewExtractor()
	defer ext.Close()

	gen := test.NewFrameGenerator(320, 240).Grayscale()
	reference := gen.Static()
	defer reference.Close()

	current := gen.WithBlob(image.Rect(10, 10, 60, 60))
	defer current.Close()
	gocv.Rectangle(&current, image.Rect(200, 150, 280, 220), LabelColor, -1)

	regions, err := ext.Extract(reference, current)
	require.NoError(t, err)
	assert.Len(t, regions, 2)
}

func TestExtractorDimensionMismatch(t *testing.T) {
	ext := NewExtractor()
	defer ext.Close()

	reference := test.NewFrameGenerator(320, 240).Grayscale().Static()
	defer reference.Close()
	current := test.NewFrameGenerator(160, 120).Grayscale().Static()
	defer current.Close()

	_, err := ext.Extract(reference, current)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	color := test.NewFrameGenerator(320, 240).Static()
	defer color.Close()
	_, err = ext.Extract(reference, color)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = ext.Extract(empty, current)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
