package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsUnique(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	assert.True(t, IsValid(a))
}

func TestFromNameIsStable(t *testing.T) {
	assert.Equal(t, FromName("jan@example.com"), FromName("jan@example.com"))
	assert.NotEqual(t, FromName("jan@example.com"), FromName("piet@example.com"))
	assert.True(t, IsValid(FromName("x")))
	assert.False(t, IsValid("not-a-uuid"))
}
