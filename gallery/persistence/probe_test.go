package persistence

import (
	"testing"
)

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		apiLevel int
		want     Mode
		wantErr  bool
	}{
		{name: "auto on scoped platform", mode: "auto", apiLevel: 29, want: ModeScoped},
		{name: "auto on newer platform", mode: "", apiLevel: 34, want: ModeScoped},
		{name: "auto on legacy platform", mode: "auto", apiLevel: 28, want: ModeLegacy},
		{name: "forced scoped", mode: "Scoped", apiLevel: 21, want: ModeScoped},
		{name: "forced legacy", mode: "legacy", apiLevel: 34, want: ModeLegacy},
		{name: "unknown", mode: "cloud", apiLevel: 34, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectMode(tt.mode, tt.apiLevel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SelectMode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SelectMode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewMediaStore(t *testing.T) {
	sqlDB := setupTestMediaDB(t)

	for _, mode := range []Mode{ModeScoped, ModeLegacy} {
		store, err := NewMediaStore(mode, t.TempDir(), sqlDB)
		if err != nil {
			t.Fatalf("NewMediaStore(%q) error = %v", mode, err)
		}
		if store.Name() != string(mode) {
			t.Errorf("Name() = %q, want %q", store.Name(), mode)
		}
	}

	if _, err := NewMediaStore(ModeAuto, t.TempDir(), sqlDB); err == nil {
		t.Error("expected unresolved mode to be rejected")
	}
}

func TestNormalizeRelativePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Pictures", want: "Pictures/"},
		{in: "Pictures/App/", want: "Pictures/App/"},
		{in: "/Pictures//App", want: "Pictures/App/"},
		{in: `DCIM\Camera`, want: "DCIM/Camera/"},
		{in: "./Download", want: "Download/"},
		{in: "", want: ""},
		{in: "../x", wantErr: true},
		{in: "a/../../b", wantErr: true},
	}

	for _, tt := range tests {
		got, err := normalizeRelativePath(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("normalizeRelativePath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeRelativePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
