package plate

import (
	"sort"
	"sync"
)

// Entry is a watchlist plate.
type Entry struct {
	ID    string
	Plate string // normalized
	Label string
	// MaxDistance is the largest edit distance still counted as a match.
	MaxDistance int
}

// Match is a watchlist entry that matched a reading.
type Match struct {
	Entry    *Entry
	Distance int
	Score    float64 // 1/(1+Distance), higher is better
}

// Matcher compares readings against watchlist entries.
type Matcher struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// SetEntries replaces the watchlist.
func (m *Matcher) SetEntries(entries []*Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:0:0], entries...)
}

// Add appends e to the watchlist. Nil entries are ignored.
func (m *Matcher) Add(e *Entry) {
	if e == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

// Remove drops the entry with the given ID.
func (m *Matcher) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of watchlist entries.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Match returns the entries matching text, best first. text is normalized
// before comparison; an empty reading never matches.
func (m *Matcher) Match(text string) []Match {
	reading := Normalize(text)
	if reading == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, e := range m.entries {
		d := Distance(reading, e.Plate)
		if d > e.MaxDistance {
			continue
		}
		matches = append(matches, Match{
			Entry:    e,
			Distance: d,
			Score:    1.0 / (1.0 + float64(d)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}
