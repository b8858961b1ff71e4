package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CollisionResolver produces non-colliding destination paths by
// appending a numeric suffix before the extension. It remembers every
// path it has handed out, because the filesystem check alone cannot see
// not-yet-executed sibling operations in the same batch.
type CollisionResolver struct {
	claimed map[string]struct{}
}

// NewCollisionResolver creates a resolver for one batch.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{claimed: make(map[string]struct{})}
}

// Resolve returns the candidate unchanged when it is free, otherwise
// the first _1, _2, ... suffixed variant that neither exists on disk
// nor was claimed earlier in the batch. The returned path is claimed.
func (r *CollisionResolver) Resolve(candidate string) string {
	if r.free(candidate) {
		r.claimed[candidate] = struct{}{}
		return candidate
	}

	ext := filepath.Ext(candidate)
	base := strings.TrimSuffix(candidate, ext)
	for i := 1; ; i++ {
		next := fmt.Sprintf("%s_%d%s", base, i, ext)
		if r.free(next) {
			r.claimed[next] = struct{}{}
			return next
		}
	}
}

func (r *CollisionResolver) free(path string) bool {
	if _, ok := r.claimed[path]; ok {
		return false
	}
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}
