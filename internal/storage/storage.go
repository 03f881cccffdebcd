package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/buchloe-events/internal/event"
)

const (
	snapshotPrefix  = "processed_events_"
	timestampLayout = "20060102_150405"
	dateLayout      = "20060102"
)

// Store persists event snapshots
type Store interface {
	// Latest returns the most recent snapshot, or event.ErrStorageUnavailable
	// when none has been saved yet.
	Latest() ([]event.Event, error)
	// Save persists events as the snapshot taken at the given time and
	// returns where it was written. An empty collection is not written.
	Save(events []event.Event, at time.Time) (string, error)
}

// FileStore keeps one JSON file per snapshot in a directory
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore, creating dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the snapshot directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// ExpandHome expands a leading ~/ to the user's home directory.
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

// SnapshotName returns the file name of the snapshot taken at t.
func SnapshotName(t time.Time) string {
	return snapshotPrefix + t.Format(timestampLayout) + ".json"
}

var fileTimestamp = regexp.MustCompile(`(\d{8})(?:_(\d{6}))?$`)

// fileTime extracts the timestamp embedded at the end of a snapshot file
// name. Names without one sort before every dated snapshot.
func fileTime(name string) time.Time {
	m := fileTimestamp.FindStringSubmatch(strings.TrimSuffix(name, filepath.Ext(name)))
	if m == nil {
		return time.Time{}
	}
	if m[2] != "" {
		if t, err := time.Parse(timestampLayout, m[1]+"_"+m[2]); err == nil {
			return t
		}
	}
	if t, err := time.Parse(dateLayout, m[1]); err == nil {
		return t
	}
	return time.Time{}
}

// LatestFile returns the path of the newest JSON snapshot in dir.
func LatestFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return "", fmt.Errorf("listing snapshots: %w", err)
	}
	if len(matches) == 0 {
		return "", event.ErrStorageUnavailable
	}

	sort.Slice(matches, func(i, j int) bool {
		ti, tj := fileTime(filepath.Base(matches[i])), fileTime(filepath.Base(matches[j]))
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return matches[i] < matches[j]
	})
	return matches[len(matches)-1], nil
}

// Latest implements Store.
func (s *FileStore) Latest() ([]event.Event, error) {
	path, err := LatestFile(s.dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// Save implements Store.
func (s *FileStore) Save(events []event.Event, at time.Time) (string, error) {
	if len(events) == 0 {
		return "", nil
	}

	path := filepath.Join(s.dir, SnapshotName(at))
	if err := WriteFile(path, events); err != nil {
		return "", err
	}
	return path, nil
}

// LoadFile reads a JSON array of events.
func LoadFile(path string) ([]event.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", event.ErrStorageUnavailable, path)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	return decodeEvents(data)
}

// WriteFile writes events as an indented JSON array.
func WriteFile(path string, events []event.Event) error {
	data, err := encodeEvents(events)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func encodeEvents(events []event.Event) ([]byte, error) {
	if events == nil {
		events = []event.Event{}
	}
	data, err := json.MarshalIndent(events, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

func decodeEvents(data []byte) ([]event.Event, error) {
	var events []event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if events == nil {
		events = []event.Event{}
	}
	return events, nil
}
