package catalog

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3:45", 225, false},
		{"0:30", 30, false},
		{"10:05", 605, false},
		{"1:02:03", 3723, false},
		{" 4:20 ", 260, false},
		{"", 0, true},
		{"345", 0, true},
		{"3:xx", 0, true},
		{"-1:30", 0, true},
		{"1:2:3:4", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEffectiveArtist(t *testing.T) {
	tr := Track{Title: "Intro", Artists: []string{"Guest Artist", "Other"}}
	if got := tr.EffectiveArtist("Release Artist"); got != "Guest Artist" {
		t.Errorf("EffectiveArtist = %q, want Guest Artist", got)
	}

	tr = Track{Title: "Intro"}
	if got := tr.EffectiveArtist("Release Artist"); got != "Release Artist" {
		t.Errorf("EffectiveArtist = %q, want Release Artist", got)
	}

	tr = Track{Title: "Intro", Artists: []string{""}}
	if got := tr.EffectiveArtist("Release Artist"); got != "Release Artist" {
		t.Errorf("EffectiveArtist with empty head = %q, want Release Artist", got)
	}
}
