package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/render"
	"github.com/joeblew999/plat-style/internal/style"
)

// ErrSourceNotFound is returned for a source file that does not exist.
var ErrSourceNotFound = errors.New("source file not found")

const maxUpload = 50 << 20

// SourceService resolves the GeoJSON sources of a style: inline
// FeatureCollections, or file names under <data-dir>/sources.
type SourceService struct {
	sourcesDir string
	inline     render.InlineSources
	log        *logrus.Entry

	mu    sync.Mutex
	cache map[string]cachedSource
}

type cachedSource struct {
	modTime time.Time
	fc      *geojson.FeatureCollection
}

// NewSourceService creates a new source service.
func NewSourceService(dataDir string) *SourceService {
	return &SourceService{
		sourcesDir: filepath.Join(dataDir, "sources"),
		log:        logrus.WithField("component", "sources"),
		cache:      make(map[string]cachedSource),
	}
}

var _ render.SourceResolver = (*SourceService)(nil)

// List returns all GeoJSON files in the sources directory.
func (s *SourceService) List() ([]SourceFile, error) {
	entries, err := os.ReadDir(s.sourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SourceFile{}, nil
		}
		return nil, err
	}

	files := []SourceFile{}
	for _, entry := range entries {
		if entry.IsDir() || !isGeoJSON(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, SourceFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: "GeoJSON",
		})
	}
	return files, nil
}

// SourcesDir returns the path to the sources directory.
func (s *SourceService) SourcesDir() string {
	return s.sourcesDir
}

// FeatureCollection returns the features of a geojson source. Data that is a
// JSON string names a file in the sources directory; files are cached until
// they change on disk.
func (s *SourceService) FeatureCollection(name string, src style.Source) (*geojson.FeatureCollection, error) {
	if src.Type != "geojson" {
		return nil, fmt.Errorf("source %q: unsupported type %q", name, src.Type)
	}
	if len(src.Data) > 0 && src.Data[0] == '{' {
		return s.inline.FeatureCollection(name, src)
	}

	var file string
	if err := json.Unmarshal(src.Data, &file); err != nil || file == "" {
		return nil, fmt.Errorf("source %q: data must be a FeatureCollection or a file name", name)
	}
	return s.Load(file)
}

// Load reads a GeoJSON file from the sources directory.
func (s *SourceService) Load(file string) (*geojson.FeatureCollection, error) {
	if file != filepath.Base(file) || !isGeoJSON(file) {
		return nil, fmt.Errorf("invalid source file name %q", file)
	}
	path := filepath.Join(s.sourcesDir, file)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, file)
		}
		return nil, err
	}

	s.mu.Lock()
	c, ok := s.cache[file]
	s.mu.Unlock()
	if ok && c.modTime.Equal(info.ModTime()) {
		return c.fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson %s: %w", file, err)
	}

	s.mu.Lock()
	s.cache[file] = cachedSource{modTime: info.ModTime(), fc: fc}
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"file": file, "features": len(fc.Features)}).Debug("source loaded")
	return fc, nil
}

// Save validates a GeoJSON upload and writes it to the sources directory.
func (s *SourceService) Save(file string, r io.Reader) (SourceFile, error) {
	if file != filepath.Base(file) || strings.Contains(file, "..") || !isGeoJSON(file) {
		return SourceFile{}, fmt.Errorf("only .geojson or .json files are allowed, got %q", file)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxUpload+1))
	if err != nil {
		return SourceFile{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > maxUpload {
		return SourceFile{}, fmt.Errorf("upload exceeds %s", formatSize(maxUpload))
	}
	if _, err := geojson.UnmarshalFeatureCollection(data); err != nil {
		return SourceFile{}, fmt.Errorf("not a GeoJSON FeatureCollection: %w", err)
	}
	if err := os.MkdirAll(s.sourcesDir, 0755); err != nil {
		return SourceFile{}, err
	}
	if err := os.WriteFile(filepath.Join(s.sourcesDir, file), data, 0644); err != nil {
		return SourceFile{}, fmt.Errorf("saving source: %w", err)
	}
	s.forget(file)
	s.log.WithField("file", file).Info("source uploaded")
	return SourceFile{Name: file, Size: formatSize(int64(len(data))), FileType: "GeoJSON"}, nil
}

// Delete removes a file from the sources directory.
func (s *SourceService) Delete(file string) error {
	if file == "" || file != filepath.Base(file) || strings.Contains(file, "..") {
		return fmt.Errorf("invalid source file name %q", file)
	}
	if err := os.Remove(filepath.Join(s.sourcesDir, file)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, file)
		}
		return err
	}
	s.forget(file)
	return nil
}

func (s *SourceService) forget(file string) {
	s.mu.Lock()
	delete(s.cache, file)
	s.mu.Unlock()
}

func isGeoJSON(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".geojson" || ext == ".json"
}

// formatSize returns a human-readable byte count.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
