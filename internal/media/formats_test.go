package media

import "testing"

func TestFormats(t *testing.T) {
	for path, want := range map[string][2]bool{
		"a.WebM":    {true, true},
		"a.mp3":     {false, true},
		"a.FLAC":    {false, true},
		"notes.txt": {false, false},
		"noext":     {false, false},
	} {
		if got := IsVideo(path); got != want[0] {
			t.Errorf("IsVideo(%q) = %v", path, got)
		}
		if got := IsSupported(path); got != want[1] {
			t.Errorf("IsSupported(%q) = %v", path, got)
		}
	}
}
