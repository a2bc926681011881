package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	d := LoadDefaults()

	if d.Thresholds.Hash != 5 {
		t.Errorf("default hash threshold should be 5, got %d", d.Thresholds.Hash)
	}
	if d.Thresholds.Similarity <= 0 || d.Thresholds.Similarity > 1 {
		t.Errorf("default similarity should be in (0,1], got %f", d.Thresholds.Similarity)
	}
	if d.Thresholds.Tolerance <= 0 {
		t.Errorf("default tolerance should be positive, got %f", d.Thresholds.Tolerance)
	}
	if len(d.Extensions) == 0 {
		t.Error("defaults should list supported extensions")
	}
}

func TestSupportedExtension(t *testing.T) {
	d := LoadDefaults()

	tests := []struct {
		ext      string
		expected bool
	}{
		{".jpg", true},
		{".JPG", true},
		{".jpeg", true},
		{".png", true},
		{".webp", true},
		{".TIFF", true},
		{".txt", false},
		{".mp4", false},
		{"", false},
	}

	for _, tc := range tests {
		t.Run(tc.ext, func(t *testing.T) {
			if got := d.SupportedExtension(tc.ext); got != tc.expected {
				t.Errorf("SupportedExtension(%q) = %v; want %v", tc.ext, got, tc.expected)
			}
		})
	}
}

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		expected int
	}{
		{"unset", "", 8, 8},
		{"valid", "4", 8, 4},
		{"invalid", "abc", 8, 8},
		{"negative", "-2", 8, 8},
		{"zero", "0", 8, 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key := "PHOTO_DEDUP_TEST_ENV_INT"
			if tc.value == "" {
				os.Unsetenv(key)
			} else {
				t.Setenv(key, tc.value)
			}
			if got := envInt(key, tc.fallback); got != tc.expected {
				t.Errorf("envInt(%q, %d) = %d; want %d", tc.value, tc.fallback, got, tc.expected)
			}
		})
	}
}
