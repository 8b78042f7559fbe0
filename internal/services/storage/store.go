package storage

import (
	"fmt"
	"sync"

	"photosorter/internal/model"
)

type entry struct {
	image  model.ClassifiedImage
	handle *Handle
}

// Store is the in-memory collection of classified results for the current
// run, ordered by arrival. It owns the spool handles of its entries: Remove
// and Clear release them, nothing else in the system does.
type Store struct {
	entries []entry
	mu      sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		entries: make([]entry, 0),
	}
}

// Append adds a classified image and its handle at the end of the store.
func (s *Store) Append(image model.ClassifiedImage, handle *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry{image: image, handle: handle})
}

// Remove deletes the entry with the given id and releases its handle.
// Removing an unknown id is a no-op and reports false.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.image.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			_ = e.handle.Release()
			return true
		}
	}
	return false
}

// Clear removes all entries and releases every handle.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		_ = e.handle.Release()
	}
	s.entries = s.entries[:0]
}

// ByCategory returns the images of one category in arrival order.
func (s *Store) ByCategory(category model.Category) []model.ClassifiedImage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var images []model.ClassifiedImage
	for _, e := range s.entries {
		if e.image.Category == category {
			images = append(images, e.image)
		}
	}
	return images
}

// All returns every image in arrival order.
func (s *Store) All() []model.ClassifiedImage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := make([]model.ClassifiedImage, 0, len(s.entries))
	for _, e := range s.entries {
		images = append(images, e.image)
	}
	return images
}

// Read returns the spooled bytes of the entry with the given id.
func (s *Store) Read(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.image.ID == id {
			return e.handle.Read()
		}
	}
	return nil, fmt.Errorf("no image with id %s", id)
}

// CategoryCounts returns per-category entry counts.
func (s *Store) CategoryCounts() map[model.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.Category]int, len(model.Categories()))
	for _, c := range model.Categories() {
		counts[c] = 0
	}
	for _, e := range s.entries {
		counts[e.image.Category]++
	}
	return counts
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
