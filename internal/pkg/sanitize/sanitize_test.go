package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringStripsTagsAndEscapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"tags removed", "<script>alert(1)</script>hi", "alert(1)hi"},
		{"entities escaped", `a & b "c"`, "a &amp; b &quot;c&quot;"},
		{"slash escaped", "a/b", "a&#x2F;b"},
		{"trimmed", "  spaced  ", "spaced"},
		{"unicode preserved", "こんにちは", "こんにちは"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, String(tc.in))
		})
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "あいう", Truncate("あいうえお", 3))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("anything", 0))
}
