package app

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"nn-client/internal/domain/entity"
)

func detectorInfo() entity.ModelInfo {
	return entity.ModelInfo{Type: entity.ModelDetector, InputWidth: 300, InputHeight: 300}.WithFrame(640, 480)
}

func TestNewRenderer_SelectsByModelType(t *testing.T) {
	classifier := entity.ModelInfo{Type: entity.ModelClassifier, InputWidth: 224, InputHeight: 224}
	require.IsType(t, &ClassifierRenderer{}, NewRenderer(classifier, nil, nil))
	require.IsType(t, &DetectorRenderer{}, NewRenderer(detectorInfo(), nil, nil))

	unknown := entity.ModelInfo{Type: "segmenter", InputWidth: 1, InputHeight: 1}
	require.IsType(t, &DetectorRenderer{}, NewRenderer(unknown, nil, nil))
}

func TestClassifierRenderer_Labels(t *testing.T) {
	palette := entity.GeneratePalette(10)
	info := entity.ModelInfo{Type: entity.ModelClassifier, InputWidth: 224, InputHeight: 224}

	withLabels := NewRenderer(info, entity.Labels{"cat", "dog", "bird"}, palette)
	anns := withLabels.Render(entity.Classification{ClassID: 2})
	require.Len(t, anns, 1)
	require.Equal(t, entity.AnnotationText, anns[0].Kind)
	require.Equal(t, "bird", anns[0].Label)
	require.Equal(t, image.Pt(20, 20), anns[0].Origin)
	require.Equal(t, palette[2], anns[0].Color)

	noLabels := NewRenderer(info, nil, palette)
	anns = noLabels.Render(entity.Classification{ClassID: 2})
	require.Equal(t, "#2", anns[0].Label)
}

func TestClassifierRenderer_ColorWrapsPalette(t *testing.T) {
	palette := entity.GeneratePalette(3)
	r := &ClassifierRenderer{palette: palette}
	anns := r.Render(entity.Classification{ClassID: 7})
	require.Equal(t, palette[1], anns[0].Color)
}

func TestClassifierRenderer_IgnoresDetections(t *testing.T) {
	r := &ClassifierRenderer{}
	require.Nil(t, r.Render(entity.Detections{{ClassID: 1}}))
}

func TestDetectorRenderer_ScalesBoxes(t *testing.T) {
	r := NewRenderer(detectorInfo(), nil, entity.GeneratePalette(5))
	anns := r.Render(entity.Detections{{ClassID: 1, Score: 0.9, XMin: 30, YMin: 30, XMax: 60, YMax: 60}})

	require.Len(t, anns, 2)
	require.Equal(t, entity.AnnotationRect, anns[0].Kind)
	require.Equal(t, image.Rectangle{Min: image.Pt(64, 48), Max: image.Pt(128, 96)}, anns[0].Rect)
	require.Equal(t, entity.AnnotationText, anns[1].Kind)
	require.Equal(t, image.Pt(84, 68), anns[1].Origin)
	require.Equal(t, "#1", anns[1].Label)
	require.Equal(t, anns[0].Color, anns[1].Color)
}

func TestDetectorRenderer_TruncatesCoordinates(t *testing.T) {
	r := &DetectorRenderer{ratio: [2]float64{1.5, 1.5}}
	box := r.Scale(entity.Detection{XMin: 1, YMin: 3, XMax: 5, YMax: 7})
	require.Equal(t, image.Rectangle{Min: image.Pt(1, 4), Max: image.Pt(7, 10)}, box)
}

func TestDetectorRenderer_SuppressesPerson(t *testing.T) {
	labels := entity.Labels{"background", "person", "bicycle", "car"}
	r := NewRenderer(detectorInfo(), labels, entity.GeneratePalette(4))

	anns := r.Render(entity.Detections{
		{ClassID: 2, Score: 0.7, XMin: 10, YMin: 10, XMax: 20, YMax: 20},
		{ClassID: 1, Score: 0.99, XMin: 0, YMin: 0, XMax: 300, YMax: 300},
		{ClassID: 3, Score: 0.6, XMin: 100, YMin: 100, XMax: 200, YMax: 200},
	})

	require.Len(t, anns, 4)
	for _, a := range anns {
		require.NotEqual(t, "person", a.Label)
	}
	require.Equal(t, "bicycle", anns[0].Label)
	require.Equal(t, "car", anns[2].Label)
}

func TestDetectorRenderer_PersonOnlyByResolvedLabel(t *testing.T) {
	// без таблицы меток имя "#1", подавлять нечего
	r := NewRenderer(detectorInfo(), nil, entity.GeneratePalette(4))
	anns := r.Render(entity.Detections{{ClassID: 1, XMax: 10, YMax: 10}})
	require.Len(t, anns, 2)
}

func TestDetectorRenderer_Empty(t *testing.T) {
	r := NewRenderer(detectorInfo(), nil, nil)
	require.Empty(t, r.Render(entity.Detections{}))
	require.Nil(t, r.Render(entity.Classification{ClassID: 1}))
}
