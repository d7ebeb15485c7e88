package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgePageCacheByAge removes page entries whose SavedAt is older than
// maxAge, deleting both meta and body.
func PurgePageCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var e PageEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		return nil
	})
	return removed, err
}

// PurgeTitleCacheByAge removes title entries by modification time.
func PurgeTitleCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTitleFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		return nil
	})
	return removed, err
}

func isTitleFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".meta.json")
}

type lruEntry struct {
	paths []string
	size  int64
	mtime time.Time
}

// EnforceTitleCacheLimits evicts least recently used title entries until
// at most maxCount entries and maxBytes bytes remain. Zero disables a limit.
func EnforceTitleCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	var items []lruEntry
	for _, e := range entries {
		if e.IsDir() || !isTitleFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, lruEntry{
			paths: []string{filepath.Join(dir, e.Name())},
			size:  info.Size(),
			mtime: info.ModTime(),
		})
	}
	return evict(items, maxBytes, maxCount), nil
}

// EnforcePageCacheLimits evicts least recently used pages, using the body
// mtime which LoadBody refreshes.
func EnforcePageCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	var items []lruEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".body") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".body")
		meta := filepath.Join(dir, base+".meta.json")
		size := info.Size()
		if mi, err := os.Stat(meta); err == nil {
			size += mi.Size()
		}
		items = append(items, lruEntry{
			paths: []string{filepath.Join(dir, e.Name()), meta},
			size:  size,
			mtime: info.ModTime(),
		})
	}
	return evict(items, maxBytes, maxCount), nil
}

func evict(items []lruEntry, maxBytes int64, maxCount int) int {
	if maxBytes <= 0 && maxCount <= 0 {
		return 0
	}
	// oldest first
	sort.SliceStable(items, func(i, j int) bool { return items[i].mtime.Before(items[j].mtime) })
	var total int64
	for _, it := range items {
		total += it.size
	}
	count := len(items)
	removed := 0
	for _, it := range items {
		overCount := maxCount > 0 && count > maxCount
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		for _, p := range it.paths {
			_ = os.Remove(p)
		}
		count--
		total -= it.size
		removed++
	}
	return removed
}
