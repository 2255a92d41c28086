package processing

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/body"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/garment"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	return img
}

func TestFitToFrame(t *testing.T) {
	t.Parallel()

	p := NewProcessor()
	out, err := p.FitToFrame(createTestImage(1280, 720), 640, 480)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), out.Bounds())

	_, err = p.FitToFrame(createTestImage(10, 10), 0, 480)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	p := NewProcessor()
	img := createTestImage(64, 48)
	dir := t.TempDir()

	for _, format := range []string{"png", "jpg", "webp"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "out", "frame."+format)
			require.NoError(t, p.SaveImage(img, path, format, 90, false))

			loaded, err := p.LoadImageSmart(path)
			require.NoError(t, err)
			assert.Equal(t, 64, loaded.Bounds().Dx())
			assert.Equal(t, 48, loaded.Bounds().Dy())
		})
	}
}

func TestLoadImageFromURL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createTestImage(20, 10)))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/text" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	p := NewProcessor()
	img, err := p.LoadImageSmart(srv.URL + "/shirt.png")
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	_, err = p.LoadImageFromURL(srv.URL + "/text")
	assert.Error(t, err)

	_, err = p.LoadImageFromURL("ftp://example.com/a.png")
	assert.Error(t, err)
}

func TestPrepareImageForModel(t *testing.T) {
	t.Parallel()

	p := NewProcessor()
	b64, err := p.PrepareImageForModel(createTestImage(800, 400), "png", 200, 85)
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestCreateDebugOverlay(t *testing.T) {
	t.Parallel()

	p := NewProcessor()
	canvas := p.NewCanvas(100, 100, color.Black)

	frame := keypoints.Frame{Keypoints: []keypoints.Keypoint{
		{Name: "nose", X: 50, Y: 50, Confidence: 0.9},
	}}
	sk := frame.Resolve()
	grid := garment.Grid{
		Rows:   2,
		Cols:   2,
		Points: []garment.Point{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 10, Y: 30}, {X: 30, Y: 30}},
		UV:     []garment.UV{{U: 0, V: 0}, {U: 1, V: 0}, {U: 0, V: 1}, {U: 1, V: 1}},
	}

	out := p.CreateDebugOverlay(canvas, &sk, nil, []garment.Grid{grid})
	nrgba, ok := out.(*image.NRGBA)
	require.True(t, ok)

	assertNear(t, color.NRGBA{0, 255, 0, 255}, nrgba.NRGBAAt(50, 50))
	assertNear(t, color.NRGBA{0, 170, 255, 255}, nrgba.NRGBAAt(20, 10))
	assertNear(t, color.NRGBA{0, 170, 255, 255}, nrgba.NRGBAAt(10, 20))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, nrgba.NRGBAAt(80, 80))
	// The source image is left untouched.
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, canvas.NRGBAAt(50, 50))
}

// assertNear allows for antialiasing at the stroke edges.
func assertNear(t *testing.T, want, got color.NRGBA) {
	t.Helper()
	for i, pair := range [][2]uint8{{want.R, got.R}, {want.G, got.G}, {want.B, got.B}} {
		assert.InDelta(t, float64(pair[0]), float64(pair[1]), 40, "channel %d of %v", i, got)
	}
}

func TestCreateDebugOverlayFarJoint(t *testing.T) {
	t.Parallel()

	frame := keypoints.Frame{Keypoints: []keypoints.Keypoint{
		{Name: "nose", X: 250, Y: 100, Confidence: 0.9},
		{Name: "left_shoulder", X: 200, Y: 150, Confidence: 0.9},
		{Name: "right_shoulder", X: 300, Y: 150, Confidence: 0.9},
		{Name: "left_elbow", X: 180, Y: 220, Confidence: 0.9},
		{Name: "left_wrist", X: 1e12, Y: 1e12, Confidence: 0.9},
		{Name: "left_hip", X: 210, Y: 300, Confidence: 0.9},
		{Name: "right_hip", X: 290, Y: 300, Confidence: 0.9},
	}}
	mesh, ok := body.New().Build(frame, 170)
	require.True(t, ok)
	sk := frame.Resolve()

	p := NewProcessor()
	out := p.CreateDebugOverlay(p.NewCanvas(640, 480, color.Black), &sk, &mesh, nil)
	nrgba, ok := out.(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 640, 480), nrgba.Bounds())

	// The forearm leaves the frame on a 45 degree line from the elbow.
	assert.Greater(t, nrgba.NRGBAAt(190, 230).R, uint8(100))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, nrgba.NRGBAAt(600, 20))
}
