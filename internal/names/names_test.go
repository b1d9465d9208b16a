package names

import "testing"

func TestFlip(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"Smith, John", "John Smith", true},
		{"Tolkien, J. R. R.", "J. R. R. Tolkien", true},
		{"Le Guin, Ursula K.", "Ursula K. Le Guin", true},
		// Already natural order: no match, not an error
		{"John Smith", "", false},
		{"Plato", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, ok := Flip(tt.input)
			if ok != tt.ok || result != tt.expected {
				t.Errorf("Flip(%q) = %q, %v, want %q, %v", tt.input, result, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestPick(t *testing.T) {
	tests := []struct {
		name     string
		formA    string
		formB    string
		expected string
	}{
		{"initial prefers flipped a", "Tolkien, J. R. R.", "John Ronald Reuel Tolkien", "J. R. R. Tolkien"},
		{"no initial keeps b", "Twain, Mark", "Mark Twain", "Mark Twain"},
		{"initial without comma keeps a", "J. K. Rowling", "Joanne Rowling", "J. K. Rowling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pick(tt.formA, tt.formB); got != tt.expected {
				t.Errorf("Pick(%q, %q) = %q, want %q", tt.formA, tt.formB, got, tt.expected)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		// Initials vs full names
		{"J. Smith", "John Smith", true},
		{"John Smith", "J. Smith", true},
		{"J. R. R. Tolkien", "John Ronald Reuel Tolkien", true},
		// Flipped ordering
		{"Smith, John", "John Smith", true},
		{"Tolkien, J. R. R.", "John Ronald Reuel Tolkien", true},
		// Shorter name as subset, in order
		{"John Smith", "John Maynard Smith", true},
		// Exact
		{"Mark Twain", "Mark Twain", true},
		// Different people
		{"Mark Twain", "Samuel Clemens", false},
		{"John Smith", "Smith Johnson", false},
		// Out-of-order tokens do not match
		{"Maynard John Smith", "John Maynard Smith", false},
		// Documented false-negative class: honorific reordering and
		// title suffixes are intentionally unhandled.
		{"Saint John of the Cross", "John of the Cross Saint", false},
		{"", "John Smith", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := Match(tt.a, tt.b); got != tt.expected {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

// Match must be symmetric for every pair.
func TestMatchSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"J. Smith", "John Smith"},
		{"Smith, John", "John Smith"},
		{"Mark Twain", "Samuel Clemens"},
		{"Tolkien, J. R. R.", "John Ronald Reuel Tolkien"},
		{"Saint John of the Cross", "John of the Cross Saint"},
		{"Louis Philippe", "Louis Philippe King of the French"},
	}

	for _, p := range pairs {
		if Match(p[0], p[1]) != Match(p[1], p[0]) {
			t.Errorf("Match not symmetric for %q / %q", p[0], p[1])
		}
	}
}
