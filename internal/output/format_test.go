package output

import (
	"os"
	"strings"
	"testing"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m"},
		{719, "11m"},
		{3600, "1h 00m"},
		{7500, "2h 05m"},
		{-3, "0s"},
	}
	for _, tt := range tests {
		if got := Duration(tt.seconds); got != tt.want {
			t.Errorf("Duration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestShareBar(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	got := ShareBar(30, 60, 10)
	if !strings.HasPrefix(got, "█████░░░░░") {
		t.Errorf("ShareBar(30, 60, 10) = %q, want half-filled bar", got)
	}
	if !strings.HasSuffix(got, "50%") {
		t.Errorf("ShareBar(30, 60, 10) = %q, want 50%% suffix", got)
	}
	if got := ShareBar(5, 0, 4); !strings.HasPrefix(got, "░░░░") {
		t.Errorf("ShareBar with zero total = %q, want empty bar", got)
	}
}

func TestCategory_NoColor(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := Category(activity.CategoryDevelopment); got != "development" {
		t.Errorf("Category() = %q, want plain name", got)
	}
}

func TestIsTerminal_NotATTY(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
	if IsTerminal(nil) {
		t.Error("nil file reported as terminal")
	}
}

func TestConfigureColor_DisabledForFiles(t *testing.T) {
	defer SetNoColor(false)
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ConfigureColor(true, f)
	if !IsNoColor() {
		t.Error("expected color to be disabled when output is not a terminal")
	}
}

func TestAppList(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := AppList([]string{"Cursor", "Ghostty"}); got != "Cursor, Ghostty" {
		t.Errorf("AppList() = %q, want %q", got, "Cursor, Ghostty")
	}
	if got := AppList(nil); got != "" {
		t.Errorf("AppList(nil) = %q, want empty", got)
	}
}

func TestAppList_StyledWidth(t *testing.T) {
	got := AppList([]string{"Figma", "Slack"})
	if n := visualLen(got); n != len("Figma, Slack") {
		t.Errorf("visualLen(AppList()) = %d, want %d", n, len("Figma, Slack"))
	}
}
