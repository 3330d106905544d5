package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockErrorsAreDistinct(t *testing.T) {
	t.Parallel()
	assert.False(t, errors.Is(ErrMockNetwork, ErrMockDisk))
	assert.NotEmpty(t, ErrMockNetwork.Error())
}
