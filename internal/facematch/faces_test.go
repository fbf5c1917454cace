package facematch

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDistance(t *testing.T) {
	a := Encoding{0, 0, 0}
	b := Encoding{3, 4, 0}
	assert.InDelta(t, 5.0, Distance(a, b), 1e-9)
	assert.Zero(t, Distance(a, a))
	assert.True(t, math.IsInf(Distance(a, Encoding{1, 2}), 1))
}

func TestCountMatches(t *testing.T) {
	authorized := Encoding{1, 1, 1}
	set := NewAuthorizedSet([]Encoding{authorized})

	near := Encoding{1.1, 1.1, 1.1} // distance ~0.17
	far := Encoding{9, 9, 9}

	assert.Equal(t, 1, set.CountMatches([]Encoding{near}, 0.45))
	assert.Equal(t, 0, set.CountMatches([]Encoding{far}, 0.45))
	assert.Equal(t, 1, set.CountMatches([]Encoding{near, far}, 0.45))
	assert.Equal(t, 0, set.CountMatches(nil, 0.45))
}

func TestCountMatches_FaceMatchesAnyAuthorized(t *testing.T) {
	set := NewAuthorizedSet([]Encoding{{0, 0, 0}, {10, 10, 10}})

	// Close to the second authorized encoding only.
	face := Encoding{10.1, 10, 10}
	assert.Equal(t, 1, set.CountMatches([]Encoding{face}, 0.45))
}

type scriptedProvider struct {
	encodings map[string][]Encoding // keyed by raw image bytes
	err       error
}

func (p *scriptedProvider) Encode(ctx context.Context, image []byte) ([]Encoding, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.encodings[string(image)], nil
}

func writeTestImage(t *testing.T, dir, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	// Make contents distinct per file so the provider can key on them.
	data := append(buf.Bytes(), []byte(name)...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	return data
}

func TestLoadAuthorizedSet(t *testing.T) {
	dir := t.TempDir()
	alice := writeTestImage(t, dir, "alice.jpg")
	bob := writeTestImage(t, dir, "bob.png")
	writeTestImage(t, dir, "faceless.png")
	writeTestImage(t, dir, "notes.txt") // ignored extension

	provider := &scriptedProvider{encodings: map[string][]Encoding{
		string(alice): {{1, 2, 3}},
		string(bob):   {{4, 5, 6}, {7, 8, 9}}, // only the first face is kept
	}}

	set, err := LoadAuthorizedSet(context.Background(), dir, provider, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Size())

	assert.Equal(t, 1, set.CountMatches([]Encoding{{1, 2, 3}}, 0.1))
	assert.Equal(t, 1, set.CountMatches([]Encoding{{4, 5, 6}}, 0.1))
	assert.Equal(t, 0, set.CountMatches([]Encoding{{7, 8, 9}}, 0.1))
}

func TestLoadAuthorizedSet_MissingDir(t *testing.T) {
	set, err := LoadAuthorizedSet(context.Background(), filepath.Join(t.TempDir(), "nope"), &scriptedProvider{}, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, set.Size())
}
