package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"

	"github.com/ayusman/gesturefall/internal/gesture"
)

var (
	// ErrFetch is returned when a dataset cannot be retrieved from its source.
	ErrFetch = errors.New("failed to fetch data")
	// ErrNoTestData is returned when evaluating an empty test set.
	ErrNoTestData = errors.New("no test data")
)

// maxDatasetSize bounds how much of a dataset is read.
const maxDatasetSize = 64 << 20

// LoadDataset reads a dataset from an http(s) URL or a local file path. Any
// failure to obtain the bytes is an ErrFetch; bad content is a decode error.
func LoadDataset(ctx context.Context, source string) ([]Example, error) {
	var data []byte
	var err error
	if isURL(source) {
		data, err = fetch(ctx, source)
	} else {
		data, err = readFile(source)
	}
	if err != nil {
		return nil, err
	}
	return DecodeExamples(data)
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer f.Close()
	return readLimited(f, maxDatasetSize)
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}
	return readLimited(resp.Body, maxDatasetSize)
}

// readLimited reads at most limit bytes and fails if r holds more.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: dataset larger than %d bytes", ErrFetch, limit)
	}
	return data, nil
}

// SplitDataset shuffles a copy of examples and splits it 80/20. The example
// at the boundary goes to neither side.
func SplitDataset(examples []Example, rng *rand.Rand) (train, test []Example) {
	shuffled := append([]Example(nil), examples...)
	if rng != nil {
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}

	cut := len(shuffled) * 4 / 5
	train = shuffled[:cut]
	if start := cut + 1; start <= len(shuffled) {
		test = shuffled[start:]
	}
	return train, test
}

// Evaluate classifies every test pose and returns the percentage whose top
// label matches.
func Evaluate(ctx context.Context, test []Example, classifier gesture.Classifier) (float64, error) {
	if len(test) == 0 {
		return 0, ErrNoTestData
	}

	correct := 0
	for _, ex := range test {
		preds, err := classifier.Classify(ctx, ex.Pose)
		if err != nil {
			return 0, fmt.Errorf("classify test example: %w", err)
		}
		if top, ok := gesture.Top(gesture.Rank(preds)); ok && top == ex.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(test)) * 100, nil
}
