package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireOwner(t *testing.T) {
	assert.NoError(t, RequireOwner(5, 5))
	assert.ErrorIs(t, RequireOwner(5, 6), ErrForbidden)
	assert.ErrorIs(t, RequireOwner(0, 0), ErrForbidden, "anonymous callers own nothing")
}
