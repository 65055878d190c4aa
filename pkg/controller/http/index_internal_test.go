package http

import "testing"

func TestStemTitle(t *testing.T) {
	tests := []struct {
		stem string
		want string
	}{
		{"vocals.wav", "Vocals"},
		{"drums.wav", "Drums"},
		{"01_intro.wav", "01_intro"},
		{"Other.wav", "Other"},
		{".wav", ".wav"},
	}

	for _, tt := range tests {
		if got := stemTitle(tt.stem); got != tt.want {
			t.Errorf("stemTitle(%q) = %q, want %q", tt.stem, got, tt.want)
		}
	}
}
