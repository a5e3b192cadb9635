package scene

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"io/fs"
	"sync"
)

// FSLoader decodes GIF and PNG assets from a file system and keeps them.
// Assets are static so entries never expire.
type FSLoader struct {
	fsys fs.FS

	mu     sync.RWMutex
	images map[string]image.Image
}

// NewFSLoader creates a loader reading from fsys.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys, images: make(map[string]image.Image)}
}

// Load returns the decoded asset at name.
func (l *FSLoader) Load(name string) (image.Image, error) {
	l.mu.RLock()
	img, ok := l.images[name]
	l.mu.RUnlock()
	if ok {
		return img, nil
	}

	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", name, err)
	}

	l.mu.Lock()
	l.images[name] = img
	l.mu.Unlock()
	return img, nil
}
