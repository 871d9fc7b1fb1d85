package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sheridangray/family-event-planner/internal/event"
)

const snapshotFile = "snapshot.json"

// Storage handles persistence of event snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// ExpandHome replaces a leading ~/ with the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) snapshotPath() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

// LoadSnapshot loads the previous run's snapshot. A missing file yields an
// empty snapshot.
func (s *Storage) LoadSnapshot() (*event.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Ensure Events map is initialized
	if snapshot.Events == nil {
		snapshot.Events = make(map[string]*event.Event)
	}

	return &snapshot, nil
}

// SaveSnapshot writes the snapshot through a temporary file so a crash never
// leaves a truncated snapshot behind
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot) error {
	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := s.snapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshotPath()); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}

// SaveEvents creates and saves a snapshot from a list of canonical events
func (s *Storage) SaveEvents(events []*event.Event) error {
	snapshot := event.CreateSnapshot(events, time.Now().UTC().Format(time.RFC3339))
	return s.SaveSnapshot(snapshot)
}
