package pathguard

import (
	"os"
	"path/filepath"
	"strings"
)

// Guard confines filesystem operations to a fixed set of sandbox roots. It
// is the sole defense against path traversal via attacker-controlled names;
// every source and output path must pass IsSafe before any I/O or
// subprocess touches it.
type Guard struct {
	roots []string
}

func New(roots ...string) (*Guard, error) {
	g := &Guard{}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, err
		}
		g.roots = append(g.roots, filepath.Clean(abs))
	}
	return g, nil
}

// IsSafe reports whether path canonicalizes to a location inside one of the
// allowed roots. Symlinks inside the sandbox are rejected so a planted link
// cannot redirect reads or writes outside it.
func (g *Guard) IsSafe(path string) bool {
	if path == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)

	inside := false
	for _, root := range g.roots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			inside = true
			break
		}
	}
	if !inside {
		return false
	}

	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return false
	}
	return true
}
