package facematch

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// AuthorizedSet is the set of face encodings permitted to be on camera.
// It is loaded once at startup and read-only afterwards, so worker
// goroutines share it without locking.
type AuthorizedSet struct {
	encodings []Encoding
}

// NewAuthorizedSet wraps pre-computed encodings, mainly for tests.
func NewAuthorizedSet(encodings []Encoding) *AuthorizedSet {
	return &AuthorizedSet{encodings: encodings}
}

// LoadAuthorizedSet reads every reference image under dir, asks the
// provider for its encoding, and collects the first face of each image.
// Unreadable files and images without a face are skipped, matching the
// degraded startup behavior of the reference directory being partial.
func LoadAuthorizedSet(ctx context.Context, dir string, provider Provider, logger *zap.Logger) (*AuthorizedSet, error) {
	set := &AuthorizedSet{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Authorized faces directory does not exist", zap.String("dir", dir))
			return set, nil
		}
		return nil, fmt.Errorf("failed to read authorized faces dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".jpg") && !strings.HasSuffix(name, ".jpeg") && !strings.HasSuffix(name, ".png") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to read reference image, skipping", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		encodings, err := provider.Encode(ctx, data)
		if err != nil {
			logger.Warn("Failed to encode reference image, skipping", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if len(encodings) == 0 {
			logger.Warn("No face found in reference image, skipping", zap.String("file", entry.Name()))
			continue
		}

		set.encodings = append(set.encodings, encodings[0])
		logger.Info("Loaded authorized face", zap.String("file", entry.Name()))
	}

	return set, nil
}

// Size returns the number of authorized encodings.
func (s *AuthorizedSet) Size() int {
	return len(s.encodings)
}

// CountMatches returns how many of the given face encodings are within
// tolerance of at least one authorized encoding.
func (s *AuthorizedSet) CountMatches(faces []Encoding, tolerance float64) int {
	matched := 0
	for _, face := range faces {
		for _, authorized := range s.encodings {
			if Distance(authorized, face) <= tolerance {
				matched++
				break
			}
		}
	}
	return matched
}

// Distance is the Euclidean distance between two encodings. Encodings
// of different lengths never match.
func Distance(a, b Encoding) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
