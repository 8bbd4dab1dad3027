package testsupport

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"taggerd/internal/tagger"
)

// FakeInterrogator is a scriptable in-memory interrogator for tests. It
// counts invocations and can block until released to keep batches in
// flight.
type FakeInterrogator struct {
	ModelName  string
	Ratings    map[string]float64
	TagScores  map[string]float64
	Cats       map[string]int
	Err        error
	Unloadable bool

	mu     sync.Mutex
	calls  int
	block  chan struct{}
	loaded bool
}

// NewFakeInterrogator returns a fake with a minimal plausible score set.
func NewFakeInterrogator(name string) *FakeInterrogator {
	return &FakeInterrogator{
		ModelName:  name,
		Ratings:    map[string]float64{"general": 0.9, "sensitive": 0.1},
		TagScores:  map[string]float64{"cat": 0.8, "outdoors": 0.4},
		Cats:       map[string]int{"cat": 0, "outdoors": 0},
		Unloadable: true,
	}
}

func (f *FakeInterrogator) Name() string { return f.ModelName }

func (f *FakeInterrogator) Categories() map[string]int { return f.Cats }

func (f *FakeInterrogator) Interrogate(ctx context.Context, _ image.Image) (tagger.Result, error) {
	f.mu.Lock()
	f.calls++
	f.loaded = true
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return tagger.Result{}, ctx.Err()
		}
	}
	if f.Err != nil {
		return tagger.Result{}, f.Err
	}
	return tagger.Result{
		Ratings: cloneScores(f.Ratings),
		Tags:    cloneScores(f.TagScores),
	}, nil
}

func (f *FakeInterrogator) Unload() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Unloadable {
		return false
	}
	f.loaded = false
	return true
}

// Calls reports how many times Interrogate ran.
func (f *FakeInterrogator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Block makes subsequent Interrogate calls wait; the returned func releases
// all of them.
func (f *FakeInterrogator) Block() func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.block = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(ch)
			f.mu.Lock()
			f.block = nil
			f.mu.Unlock()
		})
	}
}

// FakeBulkInterrogator additionally implements the bulk capability.
type FakeBulkInterrogator struct {
	FakeInterrogator
	BulkCalls int
}

// NewFakeBulkInterrogator returns a bulk-capable fake.
func NewFakeBulkInterrogator(name string) *FakeBulkInterrogator {
	f := &FakeBulkInterrogator{}
	f.ModelName = name
	f.Ratings = map[string]float64{"general": 0.9, "sensitive": 0.1}
	f.TagScores = map[string]float64{"cat": 0.8, "outdoors": 0.4}
	f.Cats = map[string]int{"cat": 0, "outdoors": 0}
	f.Unloadable = true
	return f
}

func (f *FakeBulkInterrogator) InterrogateBulk(ctx context.Context, imgs []image.Image) ([]tagger.Result, error) {
	f.mu.Lock()
	f.BulkCalls++
	f.mu.Unlock()
	out := make([]tagger.Result, len(imgs))
	for i := range imgs {
		res, err := f.Interrogate(ctx, imgs[i])
		if err != nil {
			return nil, err
		}
		out[i] = res
	}
	return out, nil
}

// TestImage returns a tiny in-memory image.
func TestImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

// PNGBytes encodes the test image as PNG.
func PNGBytes(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, TestImage()); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Base64PNG encodes the test image as a base64 PNG payload.
func Base64PNG(t testing.TB) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(PNGBytes(t))
}

func cloneScores(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
