// Package photocache exposes the local directory of downloaded photos.
package photocache

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/aouyang1/einkframe/slideshow"
	"github.com/aouyang1/einkframe/util"
	mapset "github.com/deckarep/golang-set/v2"
)

// Cache is a flat directory of photo files keyed by file name.
type Cache struct {
	Dir string
}

func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// Stats summarizes what is currently cached.
type Stats struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

type fileInfo struct {
	photo slideshow.CachedPhoto
	size  int64
}

func (c *Cache) scan() ([]fileInfo, error) {
	dirs, err := os.ReadDir(c.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read cache directory, %s, %w", c.Dir, err)
	}

	var files []fileInfo
	for _, dir := range dirs {
		name := dir.Name()
		if !dir.Type().IsRegular() || !util.IsSupported(name) {
			continue
		}

		info, err := dir.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}

		files = append(files, fileInfo{
			photo: slideshow.CachedPhoto{
				ID:      name,
				Path:    filepath.Join(c.Dir, name),
				ModTime: info.ModTime(),
			},
			size: info.Size(),
		})
	}
	return files, nil
}

// ListCachedPhotos returns every supported photo in the cache directory. A
// missing directory is an empty cache.
func (c *Cache) ListCachedPhotos() ([]slideshow.CachedPhoto, error) {
	files, err := c.scan()
	if err != nil {
		return nil, err
	}

	photos := make([]slideshow.CachedPhoto, 0, len(files))
	for _, f := range files {
		photos = append(photos, f.photo)
	}
	return photos, nil
}

// Lookup finds a cached photo by id.
func (c *Cache) Lookup(id string) (slideshow.CachedPhoto, error) {
	if id == "" || id != filepath.Base(id) || !util.IsSupported(id) {
		return slideshow.CachedPhoto{}, slideshow.ErrPhotoNotFound
	}

	path := filepath.Join(c.Dir, id)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return slideshow.CachedPhoto{}, slideshow.ErrPhotoNotFound
	}
	return slideshow.CachedPhoto{ID: id, Path: path, ModTime: info.ModTime()}, nil
}

// Names returns the set of cached photo ids.
func (c *Cache) Names() (mapset.Set[string], error) {
	files, err := c.scan()
	if err != nil {
		return nil, err
	}

	names := mapset.NewSet[string]()
	for _, f := range files {
		names.Add(f.photo.ID)
	}
	return names, nil
}

func (c *Cache) Stats() (Stats, error) {
	files, err := c.scan()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, f := range files {
		stats.Count++
		stats.Bytes += f.size
	}
	return stats, nil
}

// Remove deletes a single cached photo.
func (c *Cache) Remove(id string) error {
	photo, err := c.Lookup(id)
	if err != nil {
		return err
	}
	if err := os.Remove(photo.Path); err != nil {
		return fmt.Errorf("unable to remove cached photo, %s, %w", id, err)
	}
	return nil
}

// Clear deletes every cached photo and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	files, err := c.scan()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := os.Remove(f.photo.Path); err != nil {
			slog.Warn("unable to remove cached photo", "name", f.photo.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// EnforceLimit removes the oldest photos until at most limit remain and
// returns the ids it removed.
func (c *Cache) EnforceLimit(limit int) ([]string, error) {
	files, err := c.scan()
	if err != nil {
		return nil, err
	}
	if limit < 0 || len(files) <= limit {
		return nil, nil
	}

	slices.SortFunc(files, func(a, b fileInfo) int {
		if n := a.photo.ModTime.Compare(b.photo.ModTime); n != 0 {
			return n
		}
		return cmp.Compare(a.photo.ID, b.photo.ID)
	})

	var removed []string
	for _, oldest := range files[:len(files)-limit] {
		if err := os.Remove(oldest.photo.Path); err != nil {
			slog.Warn("unable to remove old file", "name", oldest.photo.ID, "error", err)
			continue
		}
		slog.Info("removed old file to enforce limit", "name", oldest.photo.ID)
		removed = append(removed, oldest.photo.ID)
	}
	return removed, nil
}
