//go:build !gocv
// +build !gocv

package vision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCamera_WithoutGoCV(t *testing.T) {
	_, err := OpenCamera(0, 640, 480)
	require.ErrorIs(t, err, errNoGoCV)

	quit, err := NewWindow("Result", 'q').Show(&Frame{})
	require.False(t, quit)
	require.ErrorIs(t, err, errNoGoCV)
}
