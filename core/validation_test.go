package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateFragment(t *testing.T) {
	tests := []struct {
		name     string
		fragment *Fragment
		wantErr  error
	}{
		{
			name:     "valid fragment",
			fragment: &Fragment{Name: "hero", HTML: "<section></section>"},
			wantErr:  nil,
		},
		{
			name:     "valid fragment with selector",
			fragment: &Fragment{Name: "hero", Type: "shortcode", Selector: "#hero", HTML: "<section></section>"},
			wantErr:  nil,
		},
		{
			name:     "nil fragment",
			fragment: nil,
			wantErr:  ErrInvalidFragment,
		},
		{
			name:     "empty name",
			fragment: &Fragment{HTML: "<div></div>"},
			wantErr:  ErrEmptyName,
		},
		{
			name:     "empty html",
			fragment: &Fragment{Name: "hero"},
			wantErr:  ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFragment(tt.fragment)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFragment() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFragment() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidFragment) {
				t.Errorf("ValidateFragment() error should wrap ErrInvalidFragment, got %v", err)
			}
		})
	}
}

func TestValidateShortcode(t *testing.T) {
	tests := []struct {
		name      string
		shortcode *Shortcode
		wantErr   error
	}{
		{
			name:      "valid shortcode",
			shortcode: &Shortcode{Name: "hero", Template: "<section>{{title}}</section>"},
		},
		{
			name:      "nil shortcode",
			shortcode: nil,
			wantErr:   ErrInvalidShortcode,
		},
		{
			name:      "missing name",
			shortcode: &Shortcode{Template: "<div></div>"},
			wantErr:   ErrEmptyName,
		},
		{
			name:      "missing template",
			shortcode: &Shortcode{Name: "hero"},
			wantErr:   ErrEmptyTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShortcode(tt.shortcode)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateShortcode() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateShortcode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFingerprint(t *testing.T) {
	if err := ValidateFingerprint(FingerprintOf("<div></div>")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateFingerprint("abc"); !errors.Is(err, ErrInvalidFingerprint) {
		t.Errorf("short fingerprint should fail, got %v", err)
	}
	if err := ValidateFingerprint(Fingerprint(strings.Repeat("z", 64))); !errors.Is(err, ErrInvalidFingerprint) {
		t.Errorf("non-hex fingerprint should fail, got %v", err)
	}
}
