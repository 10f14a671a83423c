package render

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		in, text, attr string
	}{
		{"plain", "plain", "plain"},
		{"a<b>&c", "a&lt;b&gt;&amp;c", "a&lt;b&gt;&amp;c"},
		{"it's \"x\"", "it&#39;s &quot;x&quot;", "it&#39;s &quot;x&quot;"},
		{"a\nb\tc", "a\nb\tc", "a&#10;b&#9;c"},
	}

	for _, tt := range tests {
		if got := escapeHTML(tt.in); got != tt.text {
			t.Errorf("escapeHTML(%q) = %q, want %q", tt.in, got, tt.text)
		}
		if got := escapeAttr(tt.in); got != tt.attr {
			t.Errorf("escapeAttr(%q) = %q, want %q", tt.in, got, tt.attr)
		}
	}
}
