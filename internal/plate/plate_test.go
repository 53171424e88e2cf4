package plate

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "KA01AB", want: "KA01AB"},
		{in: "ka-01 ab", want: "KA01AB"},
		{in: "  MH 12\nDE 1433 ", want: "MH12DE1433"},
		{in: "|[]:;.", want: ""},
		{in: "", want: ""},
		{in: "ÄBC1", want: "BC1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{a: "", b: "", want: 0},
		{a: "ABC", b: "", want: 3},
		{a: "", b: "ABC", want: 3},
		{a: "KA01AB", b: "KA01AB", want: 0},
		{a: "KA01AB", b: "KAO1AB", want: 1},
		{a: "KA01AB", b: "KA01A", want: 1},
		{a: "KA01AB", b: "XKA01AB", want: 1},
		{a: "kitten", b: "sitting", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Distance(tt.b, tt.a); got != tt.want {
				t.Errorf("Distance is not symmetric for %q, %q", tt.a, tt.b)
			}
		})
	}
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher()
	m.SetEntries([]*Entry{
		{ID: "1", Plate: "KA01AB1234", Label: "stolen", MaxDistance: 1},
		{ID: "2", Plate: "KA01AB1235", Label: "visitor", MaxDistance: 2},
		{ID: "3", Plate: "MH12DE1433", Label: "staff", MaxDistance: 0},
	})

	t.Run("exact match ranks first", func(t *testing.T) {
		matches := m.Match("ka 01 ab 1234")
		if len(matches) != 2 {
			t.Fatalf("got %d matches, want 2", len(matches))
		}
		if matches[0].Entry.ID != "1" || matches[0].Distance != 0 || matches[0].Score != 1.0 {
			t.Errorf("best match = %+v, want entry 1 at distance 0", matches[0])
		}
		if matches[1].Entry.ID != "2" || matches[1].Distance != 1 {
			t.Errorf("second match = %+v, want entry 2 at distance 1", matches[1])
		}
	})

	t.Run("tolerance is per entry", func(t *testing.T) {
		if matches := m.Match("MH12DE1438"); len(matches) != 0 {
			t.Errorf("zero-tolerance entry should not match a misread, got %+v", matches)
		}
	})

	t.Run("empty reading", func(t *testing.T) {
		if matches := m.Match(" -- "); matches != nil {
			t.Errorf("expected nil, got %+v", matches)
		}
	})

	t.Run("remove", func(t *testing.T) {
		m.Remove("1")
		if m.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", m.Len())
		}
		matches := m.Match("KA01AB1234")
		if len(matches) != 1 || matches[0].Entry.ID != "2" {
			t.Errorf("after remove got %+v", matches)
		}
	})

	t.Run("add ignores nil", func(t *testing.T) {
		n := m.Len()
		m.Add(nil)
		m.Add(&Entry{ID: "4", Plate: "ZZ99", MaxDistance: 0})
		if m.Len() != n+1 {
			t.Errorf("Len() = %d, want %d", m.Len(), n+1)
		}
	})
}

func TestMatcher_SetEntriesCopies(t *testing.T) {
	entries := []*Entry{{ID: "1", Plate: "AAA"}}
	m := NewMatcher()
	m.SetEntries(entries)
	entries[0] = &Entry{ID: "2", Plate: "BBB"}

	if matches := m.Match("AAA"); len(matches) != 1 {
		t.Errorf("matcher should keep its own slice, got %+v", matches)
	}
}

func TestTracker_Observe(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("zero window reports everything", func(t *testing.T) {
		tr := NewTracker(0)
		for i := 0; i < 3; i++ {
			if !tr.Observe("ABC123", base) {
				t.Fatalf("sighting %d suppressed", i)
			}
		}
	})

	t.Run("window suppresses repeats", func(t *testing.T) {
		tr := NewTracker(10 * time.Second)

		steps := []struct {
			text   string
			offset time.Duration
			want   bool
		}{
			{text: "ABC123", offset: 0, want: true},
			{text: "abc 123", offset: 3 * time.Second, want: false},
			{text: "XYZ9", offset: 4 * time.Second, want: true},
			// continuous sightings keep extending the window
			{text: "ABC123", offset: 12 * time.Second, want: false},
			{text: "ABC123", offset: 23 * time.Second, want: true},
			{text: "XYZ9", offset: 30 * time.Second, want: true},
		}

		for i, s := range steps {
			if got := tr.Observe(s.text, base.Add(s.offset)); got != s.want {
				t.Errorf("step %d Observe(%q, +%v) = %v, want %v", i, s.text, s.offset, got, s.want)
			}
		}
	})

	t.Run("unreadable text is always reported", func(t *testing.T) {
		tr := NewTracker(time.Minute)
		tr.Observe("??", base)
		if !tr.Observe("??", base.Add(time.Second)) {
			t.Error("text that normalizes to empty should not be deduplicated")
		}
	})
}
