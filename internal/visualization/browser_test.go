package visualization

import (
	"strings"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs string
		wantErr  bool
	}{
		{"linux", "xdg-open", "report.html", false},
		{"darwin", "open", "report.html", false},
		{"windows", "cmd", "/c start report.html", false},
		{"plan9", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, "report.html")
			if (err != nil) != tt.wantErr {
				t.Fatalf("browserCommand(%q) error = %v, wantErr %v", tt.goos, err, tt.wantErr)
			}
			if name != tt.wantName || strings.Join(args, " ") != tt.wantArgs {
				t.Errorf("browserCommand(%q) = %q %v, want %q %q", tt.goos, name, args, tt.wantName, tt.wantArgs)
			}
		})
	}
}
