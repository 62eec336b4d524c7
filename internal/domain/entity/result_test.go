package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeResult_Classification(t *testing.T) {
	result, err := DecodeResult(ModelClassifier, []byte(`[2, 0.91]`))
	require.NoError(t, err)
	require.Equal(t, Classification{ClassID: 2}, result)
}

func TestDecodeResult_ClassificationEmpty(t *testing.T) {
	_, err := DecodeResult(ModelClassifier, []byte(`[]`))
	require.ErrorIs(t, err, ErrResultShape)
}

func TestDecodeResult_Detections(t *testing.T) {
	result, err := DecodeResult(ModelDetector, []byte(`[[1, 0.8, 30, 30, 60, 60], [3, 0.5, 0, 1, 2, 3]]`))
	require.NoError(t, err)
	require.Equal(t, Detections{
		{ClassID: 1, Score: 0.8, XMin: 30, YMin: 30, XMax: 60, YMax: 60},
		{ClassID: 3, Score: 0.5, XMin: 0, YMin: 1, XMax: 2, YMax: 3},
	}, result)
}

func TestDecodeResult_DetectionsNone(t *testing.T) {
	result, err := DecodeResult(ModelDetector, []byte(`[]`))
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestDecodeResult_DetectionWrongArity(t *testing.T) {
	_, err := DecodeResult(ModelDetector, []byte(`[[1, 0.8, 30, 30]]`))
	require.ErrorIs(t, err, ErrResultShape)
}

func TestDecodeResult_WrongShape(t *testing.T) {
	_, err := DecodeResult(ModelDetector, []byte(`{"type": "detector"}`))
	require.Error(t, err)
}
