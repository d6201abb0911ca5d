package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Hash(t *testing.T) {
	h := New()

	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", h.Hash(nil))
	assert.Equal(t, h.Hash([]byte("Who are you?")), h.Hash([]byte("Who are you?")))
	assert.NotEqual(t, h.Hash([]byte("a")), h.Hash([]byte("b")))
	assert.Len(t, h.Hash([]byte("anything")), 64)
}
