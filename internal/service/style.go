package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-style/internal/style"
)

// StyleService holds the style being edited. Every change is saved to
// <data-dir>/style.json and published on the bus.
type StyleService struct {
	dataDir string
	bus     *EventBus
	log     *logrus.Entry

	mu        sync.RWMutex
	doc       *style.Document
	version   int
	resumed   bool
	listeners []func(*style.Document)
}

// NewStyleService creates a style service holding the default style. A saved
// style is only picked up by Resume.
func NewStyleService(dataDir string, bus *EventBus) *StyleService {
	if bus == nil {
		bus = DefaultBus
	}
	return &StyleService{
		dataDir: dataDir,
		bus:     bus,
		log:     logrus.WithField("component", "style"),
		doc:     style.Default(),
	}
}

// OnChange registers fn to be called with every new document.
func (s *StyleService) OnChange(fn func(*style.Document)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Current returns the current document. Documents are never mutated in
// place, so the caller may keep it.
func (s *StyleService) Current() *style.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Version counts the changes made since the service started.
func (s *StyleService) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Session reports whether a saved style exists and is in use.
func (s *StyleService) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{
		HasSaved: s.HasSaved(),
		Resumed:  s.resumed,
		Version:  s.version,
		Name:     s.doc.Name,
	}
}

// HasSaved reports whether a saved style exists on disk.
func (s *StyleService) HasSaved() bool {
	_, err := os.Stat(s.styleFile())
	return err == nil
}

// Resume loads the saved style. A saved style that cannot be parsed is
// removed and the default style is used instead; Resume then returns false.
func (s *StyleService) Resume() (bool, error) {
	data, err := os.ReadFile(s.styleFile())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading saved style: %w", err)
	}

	doc, err := style.Parse(data)
	if err != nil {
		s.log.WithError(err).Warn("saved style is corrupt, starting from default")
		if err := s.removeSaved(); err != nil {
			return false, err
		}
		s.replace(style.Default(), "reset", false)
		return false, nil
	}

	s.replace(doc, "loaded", true)
	s.log.WithField("layers", len(doc.Layers)).Info("resumed saved style")
	return true, nil
}

// StartFresh discards the saved style and starts from the default.
func (s *StyleService) StartFresh() error {
	return s.Reset()
}

// Reset replaces the style with the default and removes the saved copy.
func (s *StyleService) Reset() error {
	if err := s.removeSaved(); err != nil {
		return err
	}
	s.replace(style.Default(), "reset", false)
	return nil
}

// Load replaces the style with a parsed document and saves it.
func (s *StyleService) Load(data []byte) (*style.Document, error) {
	doc, err := style.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := s.saveToDisk(doc); err != nil {
		return nil, err
	}
	s.replace(doc, "loaded", true)
	return doc, nil
}

// Layers returns the layer list of the current style.
func (s *StyleService) Layers() []LayerSummary {
	doc := s.Current()
	out := make([]LayerSummary, 0, len(doc.Layers))
	for _, l := range doc.Layers {
		out = append(out, LayerSummary{ID: l.ID, Type: l.Type, Source: l.Source, Visible: l.Visible()})
	}
	return out
}

// Properties returns the editor controls of a layer.
func (s *StyleService) Properties(id string) (style.Properties, error) {
	return s.Current().Properties(id)
}

// ToggleVisibility flips a layer between visible and hidden.
func (s *StyleService) ToggleVisibility(id string) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.ToggleVisibility(id)
	})
}

// SetVisibility shows or hides a layer.
func (s *StyleService) SetVisibility(id string, visible bool) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetVisibility(id, visible)
	})
}

// SetPaint sets one paint property of a layer.
func (s *StyleService) SetPaint(id, prop string, value any) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetPaint(id, prop, value)
	})
}

// SetLayout sets one layout property of a layer.
func (s *StyleService) SetLayout(id, prop string, value any) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetLayout(id, prop, value)
	})
}

// SetColor sets the main colour of a layer.
func (s *StyleService) SetColor(id, hex string) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetColor(id, hex)
	})
}

// SetHaloColor sets the text halo colour of a symbol layer.
func (s *StyleService) SetHaloColor(id, hex string) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetHaloColor(id, hex)
	})
}

// SetLineWidth sets the width of a line layer.
func (s *StyleService) SetLineWidth(id string, w float64) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetLineWidth(id, w)
	})
}

// SetFont sets the font of a symbol layer.
func (s *StyleService) SetFont(id, font string) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetFont(id, font)
	})
}

// SetTextSize sets the text size of a symbol layer.
func (s *StyleService) SetTextSize(id string, size float64) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetTextSize(id, size)
	})
}

// SetHaloWidthPercent sets the halo width as a percentage of the text size.
func (s *StyleService) SetHaloWidthPercent(id string, pct float64) (*style.Document, error) {
	return s.edit(id, func(d *style.Document) (*style.Document, error) {
		return d.SetHaloWidthPercent(id, pct)
	})
}

// edit applies fn to the current document, saves the result and makes it
// current. Concurrent edits are serialised.
func (s *StyleService) edit(id string, fn func(*style.Document) (*style.Document, error)) (*style.Document, error) {
	s.mu.Lock()
	next, err := fn(s.doc)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := s.saveToDisk(next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.doc = next
	s.version++
	listeners := append([]func(*style.Document){}, s.listeners...)
	s.mu.Unlock()

	s.log.WithField("layer", id).Debug("style edited")
	for _, fn := range listeners {
		fn(next)
	}
	s.bus.Publish(Event{Resource: ResourceLayer, Action: "updated", ID: id})
	return next, nil
}

func (s *StyleService) replace(doc *style.Document, action string, resumed bool) {
	s.mu.Lock()
	s.doc = doc
	s.version++
	s.resumed = resumed
	listeners := append([]func(*style.Document){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(doc)
	}
	s.bus.Publish(Event{Resource: ResourceStyle, Action: action, ID: doc.Name})
}

func (s *StyleService) styleFile() string {
	return filepath.Join(s.dataDir, "style.json")
}

// saveToDisk persists doc as the saved style.
func (s *StyleService) saveToDisk(doc *style.Document) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.styleFile(), data, 0644); err != nil {
		return fmt.Errorf("saving style: %w", err)
	}
	return nil
}

func (s *StyleService) removeSaved() error {
	if err := os.Remove(s.styleFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing saved style: %w", err)
	}
	return nil
}
