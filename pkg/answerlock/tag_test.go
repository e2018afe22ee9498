package answerlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTag(t *testing.T) {
	ciphertext := []byte{0xde, 0xad, 0xbe, 0xef}
	tag := ComputeTag(ciphertext, "blue horse")
	assert.Len(t, tag, TagSize)

	assert.True(t, tag.Equal(ComputeTag(ciphertext, "blue horse")))
	assert.False(t, tag.Equal(ComputeTag(ciphertext, "Blue Horse")))
	assert.False(t, tag.Equal(ComputeTag([]byte{0xde, 0xad, 0xbe, 0xee}, "blue horse")))
	assert.False(t, tag.Equal(nil))
}
