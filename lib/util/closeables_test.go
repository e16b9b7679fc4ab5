package util

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

type recordingCloser struct {
	closed bool
	err    error
}

func (c *recordingCloser) Close() error {
	c.closed = true
	return c.err
}

func TestCloseAllClosesEverything(t *testing.T) {
	a := &recordingCloser{}
	b := &recordingCloser{err: oops.Errorf("already gone")}
	c := &recordingCloser{}

	RegisterCloser(a)
	RegisterCloser(b)
	RegisterCloser(c)
	CloseAll()

	assert.True(t, a.closed)
	assert.True(t, b.closed, "a failing closer must not stop the rest")
	assert.True(t, c.closed)
}

func TestCloseAllIsIdempotent(t *testing.T) {
	c := &recordingCloser{}
	RegisterCloser(c)

	CloseAll()
	c.closed = false
	CloseAll()
	assert.False(t, c.closed, "closers are dropped after the first CloseAll")
}

func TestUserHomeNonEmpty(t *testing.T) {
	assert.NotEmpty(t, UserHome())
}
