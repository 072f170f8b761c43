package auth

import (
	"testing"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"deterministic", "my-api-key", "my-api-key", true},
		{"whitespace trimmed", "  my-api-key\n", "my-api-key", true},
		{"different keys", "key1", "key2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha, hb := HashKey(tt.a), HashKey(tt.b)
			if len(ha) != 64 {
				t.Errorf("HashKey() returned %d chars, want 64", len(ha))
			}
			if (ha == hb) != tt.equal {
				t.Errorf("HashKey(%q) == HashKey(%q) is %v, want %v", tt.a, tt.b, ha == hb, tt.equal)
			}
		})
	}
}

func TestHashKey_Empty(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashKey(""); got != want {
		t.Errorf("HashKey(\"\") = %v, want %v", got, want)
	}
}
