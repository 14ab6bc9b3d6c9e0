package fsutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// Reader discovers and downloads program sources from local paths or any
// storage URL the afs service understands (file://, mem://, s3://, ...).
type Reader struct {
	fs afs.Service
}

// NewReader returns a Reader backed by a fresh afs service.
func NewReader() *Reader {
	return &Reader{fs: afs.New()}
}

// NewReaderWith returns a Reader backed by the given afs service.
func NewReaderWith(service afs.Service) *Reader {
	return &Reader{fs: service}
}

// Discover expands every location into the sorted, de-duplicated list of
// files ending with one of extensions. A location naming a file is kept
// even when its extension does not match.
func (r *Reader) Discover(ctx context.Context, locations []string, extensions ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	for _, location := range locations {
		if !isURL(location) {
			info, err := os.Stat(location)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", location, err)
			}
			if !info.IsDir() {
				add(location)
				continue
			}
			files, err := FindFilesByExtension(location, extensions...)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", location, err)
			}
			for _, f := range files {
				add(f)
			}
			continue
		}

		object, err := r.fs.Object(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", location, err)
		}
		if !object.IsDir() {
			add(location)
			continue
		}
		var found []string
		var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
			if info.IsDir() {
				return true, nil
			}
			if hasExtension(info.Name(), extensions) {
				found = append(found, url.Join(baseURL, parent, info.Name()))
			}
			return true, nil
		}
		if err := r.fs.Walk(ctx, location, visitor); err != nil {
			return nil, fmt.Errorf("source %s: %w", location, err)
		}
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}
	return out, nil
}

// Read returns the content of a local path or storage URL.
func (r *Reader) Read(ctx context.Context, location string) ([]byte, error) {
	if !isURL(location) {
		return os.ReadFile(location)
	}
	data, err := r.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", location, err)
	}
	return data, nil
}

func isURL(location string) bool {
	return strings.Contains(location, "://")
}
