package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBuildsLogger(t *testing.T) {
	assert.NotNil(t, New("wallet", true))
	assert.NotNil(t, New("wallet", false))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := New("wallet", false)
	assert.Same(t, l, OrNop(l))
}
