package app

import (
	"image"

	"nn-client/internal/domain/entity"
)

const (
	// labelMargin отступ подписи от угла рамки
	labelMargin = 20
	fontScale   = 0.5
	thickness   = 2
	// suppressedLabel детекции с этим именем не рисуются
	suppressedLabel = "person"
)

// classificationOrigin место подписи класса на кадре
var classificationOrigin = image.Pt(20, 20)

// Renderer превращает результат модели в команды отрисовки
type Renderer interface {
	Render(result entity.InferenceResult) []entity.Annotation
}

// NewRenderer выбирает отрисовку по типу модели. Выбор делается один раз на сессию.
func NewRenderer(info entity.ModelInfo, labels entity.Labels, palette entity.Palette) Renderer {
	if info.IsClassifier() {
		return &ClassifierRenderer{labels: labels, palette: palette}
	}
	return &DetectorRenderer{labels: labels, palette: palette, ratio: info.Ratio}
}

// ClassifierRenderer подписывает кадр именем предсказанного класса
type ClassifierRenderer struct {
	labels  entity.Labels
	palette entity.Palette
}

// Render возвращает одну подпись в фиксированном месте кадра
func (r *ClassifierRenderer) Render(result entity.InferenceResult) []entity.Annotation {
	c, ok := result.(entity.Classification)
	if !ok {
		return nil
	}
	return []entity.Annotation{{
		Kind:      entity.AnnotationText,
		Label:     r.labels.Name(c.ClassID),
		Origin:    classificationOrigin,
		Color:     r.palette.At(c.ClassID),
		Scale:     fontScale,
		Thickness: thickness,
	}}
}

// DetectorRenderer рисует рамки детекций в координатах кадра камеры
type DetectorRenderer struct {
	labels  entity.Labels
	palette entity.Palette
	ratio   [2]float64
}

// Render возвращает рамку и подпись на каждую детекцию, кроме "person"
func (r *DetectorRenderer) Render(result entity.InferenceResult) []entity.Annotation {
	detections, ok := result.(entity.Detections)
	if !ok {
		return nil
	}

	annotations := make([]entity.Annotation, 0, 2*len(detections))
	for _, d := range detections {
		name := r.labels.Name(d.ClassID)
		if name == suppressedLabel {
			continue
		}
		color := r.palette.At(d.ClassID)
		box := r.Scale(d)

		annotations = append(annotations,
			entity.Annotation{
				Kind:      entity.AnnotationRect,
				Label:     name,
				Rect:      box,
				Color:     color,
				Thickness: thickness,
			},
			entity.Annotation{
				Kind:      entity.AnnotationText,
				Label:     name,
				Origin:    box.Min.Add(image.Pt(labelMargin, labelMargin)),
				Color:     color,
				Scale:     fontScale,
				Thickness: thickness,
			},
		)
	}
	return annotations
}

// Scale переводит рамку из координат входа модели в координаты кадра.
// Дробная часть отбрасывается.
func (r *DetectorRenderer) Scale(d entity.Detection) image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(int(d.XMin*r.ratio[0]), int(d.YMin*r.ratio[1])),
		Max: image.Pt(int(d.XMax*r.ratio[0]), int(d.YMax*r.ratio[1])),
	}
}
