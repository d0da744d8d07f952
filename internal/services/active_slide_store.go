package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"projector-server/internal/models"
)

// ActiveSlideStore reads and replaces the single active slide record
type ActiveSlideStore interface {
	Read(ctx context.Context) (models.ActiveSlide, error)
	Replace(ctx context.Context, slide models.ActiveSlide) error
}

// SlideUpdater is implemented by stores shared between processes. Update
// reads the record, applies step and writes the result as one atomic unit,
// skipping the write when step reports no change. step may run more than
// once, so it must only touch the slide it is given.
type SlideUpdater interface {
	Update(ctx context.Context, step func(*models.ActiveSlide) bool) (models.ActiveSlide, bool, error)
}

// FileActiveSlideStore keeps the active slide in a JSON file
type FileActiveSlideStore struct {
	mu       sync.RWMutex
	filePath string
	slide    models.ActiveSlide
}

// NewFileActiveSlideStore creates the store and loads any saved slide
func NewFileActiveSlideStore(dataPath string) (*FileActiveSlideStore, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &FileActiveSlideStore{
		filePath: filepath.Join(dataPath, "active_slide.json"),
	}

	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load active slide: %w", err)
	}

	return store, nil
}

// Load reads active_slide.json, keeping an empty slide if the file doesn't exist
func (s *FileActiveSlideStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		log.Printf("Active slide file not found, starting empty: %s", s.filePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read active slide file: %w", err)
	}

	var slide models.ActiveSlide
	if err := json.Unmarshal(data, &slide); err != nil {
		log.Printf("Failed to parse active_slide.json, starting empty: %v", err)
		return nil
	}

	s.slide = slide
	log.Printf("Loaded active slide (%q) from %s", slide.CallbackKind, s.filePath)
	return nil
}

// Read implements ActiveSlideStore
func (s *FileActiveSlideStore) Read(ctx context.Context) (models.ActiveSlide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slide.Clone(), nil
}

// Replace implements ActiveSlideStore. The file is written before the
// in-memory copy changes so a failed write leaves both untouched.
func (s *FileActiveSlideStore) Replace(ctx context.Context, slide models.ActiveSlide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide = slide.Clone()
	if err := s.save(slide); err != nil {
		return err
	}
	s.slide = slide
	return nil
}

// save atomically writes active_slide.json (temp file → rename)
// Must be called with lock held
func (s *FileActiveSlideStore) save(slide models.ActiveSlide) error {
	data, err := json.MarshalIndent(slide, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal active slide: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	file.Close()

	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
