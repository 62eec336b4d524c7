package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelsName(t *testing.T) {
	labels := Labels{"cat", "dog", "bird"}
	require.Equal(t, "bird", labels.Name(2))
	require.Equal(t, "#2", Labels(nil).Name(2))
	require.Equal(t, "#2", Labels{}.Name(2))
	require.Equal(t, "#7", labels.Name(7))
}
