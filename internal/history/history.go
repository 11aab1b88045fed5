package history

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"sync"
	"time"

	"github.com/sykell/phishguard/internal/scoring"
)

// TimeLayout is the timestamp format stored on every record.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one stored scan outcome. Records are deduplicated by URL: a
// repeat scan overwrites status, score, and time in place.
type Record struct {
	URL    string  `json:"url"`
	Status string  `json:"status"`
	Score  float64 `json:"score"`
	Time   string  `json:"time"`
}

// Store persists scan records as a single JSON file, read fully and
// rewritten fully on each mutation. The mutex serializes the
// read-modify-write so concurrent scans cannot lose updates. There is no
// partial-write guarantee: a crash mid-write can truncate the file, which
// the next load treats as an empty log.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewStore creates a store backed by the file at path. The file is created
// on first write; a missing or unreadable file reads as an empty log.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// Upsert records a scan outcome for url. The URL is HTML-escaped before
// storage and comparison; at most one record exists per escaped URL.
func (s *Store) Upsert(url, status string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	escaped := html.EscapeString(url)
	stamp := s.now().Format(TimeLayout)

	updated := false
	for i := range records {
		if records[i].URL == escaped {
			records[i].Status = status
			records[i].Score = score
			records[i].Time = stamp
			updated = true
			break
		}
	}

	if !updated {
		records = append(records, Record{
			URL:    escaped,
			Status: status,
			Score:  score,
			Time:   stamp,
		})
	}

	return s.save(records)
}

// ReadAll returns the log partitioned into safe and non-safe buckets,
// most-recent-first within each.
func (s *Store) ReadAll() (good, bad []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()

	good = make([]Record, 0, len(records))
	bad = make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Status == string(scoring.StatusSafe) {
			good = append(good, records[i])
		} else {
			bad = append(bad, records[i])
		}
	}
	return good, bad
}

// Clear deletes every stored record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save([]Record{})
}

// load reads the full log. Missing or unparseable content is an empty log;
// the unreadable content is destructively replaced on the next write.
func (s *Store) load() []Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// save serializes the full log and overwrites the file.
func (s *Store) save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
