package text

import (
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

// loadTestFont loads a test font for testing.
func loadTestFont(t *testing.T) *FontSource {
	t.Helper()

	// Use embedded Go font
	source, err := NewFontSource(goregular.TTF)
	if err != nil {
		t.Fatalf("failed to load test font: %v", err)
	}

	return source
}

// TestFaceAdvance tests Face.Advance.
func TestFaceAdvance(t *testing.T) {
	source := loadTestFont(t)
	defer func() {
		_ = source.Close()
	}()

	face := source.Face(16.0)

	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"single char", "A"},
		{"word", "Hello"},
		{"sentence", "The quick brown fox"},
		{"unicode", "Hello 世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advance := face.Advance(tt.text)

			if tt.text == "" {
				if advance != 0 {
					t.Errorf("Advance() = %f, want 0 for empty string", advance)
				}
				return
			}

			// Advance should be positive for non-empty text
			if advance <= 0 {
				t.Errorf("Advance() = %f, want positive value for %q", advance, tt.text)
			}

			// Advance should grow with text length
			if len(tt.text) > 1 {
				singleAdvance := face.Advance(string(tt.text[0]))
				if advance <= singleAdvance {
					t.Errorf("Advance(%q) = %f should be > Advance(%q) = %f",
						tt.text, advance, string(tt.text[0]), singleAdvance)
				}
			}
		})
	}
}

// TestFaceHasGlyph tests Face.HasGlyph.
func TestFaceHasGlyph(t *testing.T) {
	source := loadTestFont(t)
	defer func() {
		_ = source.Close()
	}()

	face := source.Face(16.0)

	tests := []struct {
		name string
		r    rune
		want bool
	}{
		{"ASCII letter", 'A', true},
		{"ASCII digit", '5', true},
		{"space", ' ', true},
		{"period", '.', true},
		{"common punctuation", '!', true},
		// Note: goregular may not have all Unicode characters
		{"basic latin", 'Z', true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := face.HasGlyph(tt.r)
			if got != tt.want {
				t.Errorf("HasGlyph(%q) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

// TestFaceSource tests Face.Source.
func TestFaceSource(t *testing.T) {
	source := loadTestFont(t)
	defer func() {
		_ = source.Close()
	}()

	face := source.Face(16.0)

	if got := face.Source(); got != source {
		t.Errorf("Source() returned different source: %p vs %p", got, source)
	}
}

// TestFaceSize tests Face.Size.
func TestFaceSize(t *testing.T) {
	source := loadTestFont(t)
	defer func() {
		_ = source.Close()
	}()

	tests := []float64{12.0, 16.0, 24.0, 48.0, 72.0}

	for _, size := range tests {
		t.Run("", func(t *testing.T) {
			face := source.Face(size)

			if got := face.Size(); got != size {
				t.Errorf("Size() = %f, want %f", got, size)
			}
		})
	}
}

// TestFaceMultipleFaces tests creating multiple faces from one source.
func TestFaceMultipleFaces(t *testing.T) {
	source := loadTestFont(t)
	defer func() {
		_ = source.Close()
	}()

	// Create multiple faces with different sizes
	face12 := source.Face(12.0)
	face16 := source.Face(16.0)
	face24 := source.Face(24.0)

	// All should have correct sizes
	if face12.Size() != 12.0 {
		t.Errorf("face12.Size() = %f, want 12.0", face12.Size())
	}
	if face16.Size() != 16.0 {
		t.Errorf("face16.Size() = %f, want 16.0", face16.Size())
	}
	if face24.Size() != 24.0 {
		t.Errorf("face24.Size() = %f, want 24.0", face24.Size())
	}

	// All should share the same source
	if face12.Source() != source {
		t.Error("face12 has different source")
	}
	if face16.Source() != source {
		t.Error("face16 has different source")
	}
	if face24.Source() != source {
		t.Error("face24 has different source")
	}

	// Advance should scale roughly with size for the same text.
	text := "danmaku"
	a12 := face12.Advance(text)
	a24 := face24.Advance(text)
	ratio := a24 / a12
	if ratio < 1.8 || ratio > 2.2 {
		t.Errorf("Advance scaling incorrect: ratio = %f, want ~2.0", ratio)
	}
}
