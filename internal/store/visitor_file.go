package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"graysky/internal/models"
)

// FileVisitorStore keeps the whole record list in a single JSON document.
// Every read takes a shared lock, every write takes an exclusive lock for
// the full read-modify-write, so an upsert is O(total records) and all
// writers serialize process-wide. That is the point: below the retention
// ceiling this is a correctness design, not a throughput one.
type FileVisitorStore struct {
	path string
	mu   sync.RWMutex
	lock *os.File // separate lock file; the data file itself is replaced atomically
}

// NewFileVisitorStore opens (creating if needed) the JSON store at path.
func NewFileVisitorStore(path string) (*FileVisitorStore, error) {
	if err := ensureDataFile(path); err != nil {
		return nil, err
	}

	// Locking a sidecar file instead of the data file keeps the lock valid
	// across atomic replaces, which swap the data file's inode.
	lock, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	return &FileVisitorStore{path: path, lock: lock}, nil
}

// Close releases the lock file handle.
func (s *FileVisitorStore) Close() error {
	return s.lock.Close()
}

func ensureDataFile(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return fmt.Errorf("failed to create data file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to stat data file: %w", err)
	}
	return nil
}

// FindByIdentity returns the record matching the exact (name, agent type) pair.
func (s *FileVisitorStore) FindByIdentity(_ context.Context, name string, agentType *string) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visitors, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range visitors {
		if identityMatches(&visitors[i], name, agentType) {
			v := visitors[i]
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

// CountByNameSince counts visits under the name after the cutoff, across
// all agent types.
func (s *FileVisitorStore) CountByNameSince(_ context.Context, name string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visitors, err := s.load()
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range visitors {
		if visitors[i].Name == name && visitors[i].VisitTime.After(since) {
			count++
		}
	}
	return count, nil
}

// Upsert overwrites the record with the same ID or appends a new one. The
// exclusive lock spans the whole read-modify-write, so concurrent inserts
// for one identity cannot both land; the loser gets ErrDuplicateIdentity.
func (s *FileVisitorStore) Upsert(_ context.Context, visitor *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := flockExclusive(s.lock); err != nil {
		return fmt.Errorf("failed to lock data file: %w", err)
	}
	defer flockRelease(s.lock)

	visitors, err := s.loadLocked()
	if err != nil {
		return err
	}

	replaced := false
	for i := range visitors {
		if visitors[i].ID == visitor.ID {
			visitors[i] = *visitor
			replaced = true
			break
		}
	}

	if !replaced {
		for i := range visitors {
			if identityMatches(&visitors[i], visitor.Name, visitor.AgentType) {
				return ErrDuplicateIdentity
			}
		}
		visitors = append(visitors, *visitor)
	}

	return s.save(visitors)
}

// ListRecent returns up to limit records, most recent visit first.
func (s *FileVisitorStore) ListRecent(_ context.Context, limit int) ([]models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visitors, err := s.load()
	if err != nil {
		return nil, err
	}

	sortVisitorsByTimeDesc(visitors)
	if limit < len(visitors) {
		visitors = visitors[:limit]
	}
	return visitors, nil
}

// TrimToCapacity drops oldest-by-visit-time records beyond maxRecords.
func (s *FileVisitorStore) TrimToCapacity(_ context.Context, maxRecords int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := flockExclusive(s.lock); err != nil {
		return fmt.Errorf("failed to lock data file: %w", err)
	}
	defer flockRelease(s.lock)

	visitors, err := s.loadLocked()
	if err != nil {
		return err
	}

	if len(visitors) <= maxRecords {
		return nil
	}

	sortVisitorsByTimeDesc(visitors)
	return s.save(visitors[:maxRecords])
}

// load reads the document under a shared advisory lock. Callers must hold
// at least the read mutex.
func (s *FileVisitorStore) load() ([]models.Visitor, error) {
	if err := flockShared(s.lock); err != nil {
		return nil, fmt.Errorf("failed to lock data file: %w", err)
	}
	defer flockRelease(s.lock)

	return s.loadLocked()
}

// loadLocked reads the document assuming the caller already holds the lock.
func (s *FileVisitorStore) loadLocked() ([]models.Visitor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var visitors []models.Visitor
	if err := json.Unmarshal(data, &visitors); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	return visitors, nil
}

func (s *FileVisitorStore) save(visitors []models.Visitor) error {
	data, err := json.MarshalIndent(visitors, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	return nil
}

func sortVisitorsByTimeDesc(visitors []models.Visitor) {
	sort.SliceStable(visitors, func(i, j int) bool {
		return visitors[i].VisitTime.After(visitors[j].VisitTime)
	})
}
