package training

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrSourceNotAllowed is returned for a dataset source outside the policy.
var ErrSourceNotAllowed = errors.New("dataset source not allowed")

// SourcePolicy decides which dataset sources an import may read. The
// configured default is always allowed, URL or not. Any other source must be
// a relative file path, and it is resolved under one of Roots.
type SourcePolicy struct {
	Default string
	Roots   []string
}

// Resolve maps a requested source to the location LoadDataset should read.
// An empty source means the default. A relative default is looked up under
// Roots first and otherwise read as given.
func (p SourcePolicy) Resolve(source string) (string, error) {
	if source == "" || source == p.Default {
		if p.Default == "" {
			return "", ErrSourceNotAllowed
		}
		if !isURL(p.Default) && filepath.IsLocal(p.Default) {
			if found, ok := p.lookup(p.Default); ok {
				return found, nil
			}
		}
		return p.Default, nil
	}
	if isURL(source) || !filepath.IsLocal(source) {
		return "", ErrSourceNotAllowed
	}
	if found, ok := p.lookup(source); ok {
		return found, nil
	}
	for _, root := range p.Roots {
		if root != "" {
			// Missing everywhere: LoadDataset reports it as a fetch error.
			return filepath.Join(root, source), nil
		}
	}
	return "", ErrSourceNotAllowed
}

func (p SourcePolicy) lookup(source string) (string, bool) {
	for _, root := range p.Roots {
		if root == "" {
			continue
		}
		candidate := filepath.Join(root, source)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
