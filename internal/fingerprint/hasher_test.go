package fingerprint

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexRegex = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestHasher_Hash(t *testing.T) {
	h := NewHasher()

	t.Run("fixed length lowercase hex", func(t *testing.T) {
		inputs := []string{"", "a", "Mozilla/5.0|en-US|203.0.113.9", "日本語"}
		for _, in := range inputs {
			assert.Regexp(t, hexRegex, h.Hash(in))
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, h.Hash("same input"), h.Hash("same input"))
	})

	t.Run("distinct inputs differ", func(t *testing.T) {
		a := h.Hash("Mozilla/5.0 (Macintosh)|en-US|203.0.113.9")
		b := h.Hash("Mozilla/5.0 (Macintosh)|en-GB|203.0.113.9")
		c := h.Hash("Mozilla/5.0 (Windows)|en-US|203.0.113.9")
		assert.NotEqual(t, a, b)
		assert.NotEqual(t, a, c)
		assert.NotEqual(t, b, c)
	})
}

func TestClickContext(t *testing.T) {
	assert.Equal(t, "ua|en-US|1.2.3.4", ClickContext("ua", "en-US", "1.2.3.4"))

	// Empty parts keep their positions.
	assert.Equal(t, "ua||", ClickContext("ua", "", ""))
	assert.NotEqual(t, ClickContext("ua", "x", ""), ClickContext("ua", "", "x"))
}
