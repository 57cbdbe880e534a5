package htmlsanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Sunny flat near campus", "Sunny flat near campus"},
		{"ampersand survives", "Tom & Jerry Mart", "Tom & Jerry Mart"},
		{"tags stripped", "<b>Cheap</b> rooms", "Cheap rooms"},
		{"script removed", "Hi<script>alert('x')</script>", "Hi"},
		{"trimmed", "  padded  ", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRichText(t *testing.T) {
	got := RichText(`<p>Two <strong>bedrooms</strong></p><img src=x onerror="alert(1)"><a href="javascript:x">link</a>`)

	for _, want := range []string{"<p>", "<strong>bedrooms</strong>", "link"} {
		if !strings.Contains(got, want) {
			t.Errorf("RichText() = %q, missing %q", got, want)
		}
	}
	for _, bad := range []string{"<img", "onerror", "javascript", "<a"} {
		if strings.Contains(got, bad) {
			t.Errorf("RichText() = %q, should not contain %q", got, bad)
		}
	}
}

func TestStrings(t *testing.T) {
	got := Strings([]string{"wifi", "<i></i>", " parking "})
	if len(got) != 2 || got[0] != "wifi" || got[1] != "parking" {
		t.Errorf("Strings() = %q", got)
	}
}
