package errx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errors.New("sentinel failed")

func TestWrapPreservesIs(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(errSentinel, cause)
	assert.True(t, errors.Is(err, errSentinel))
	assert.Equal(t, "sentinel failed: disk full", err.Error())
}

func TestWithFormatsSuffix(t *testing.T) {
	err := With(errSentinel, ": %s is missing", "foo")
	assert.True(t, errors.Is(err, errSentinel))
	assert.Equal(t, "sentinel failed: foo is missing", err.Error())
}

func TestWrapNilSentinelReturnsCause(t *testing.T) {
	cause := errors.New("cause")
	assert.Equal(t, cause, Wrap(nil, cause))
}
