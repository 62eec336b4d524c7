package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// InferenceResult результат одного вызова модели: Classification или Detections
type InferenceResult interface {
	isInferenceResult()
}

// Classification предсказанный класс для всего кадра
type Classification struct {
	ClassID int `json:"class_id" cbor:"class_id"`
}

// Detection одна рамка в координатах входа модели
type Detection struct {
	ClassID int     `json:"class_id" cbor:"class_id"`
	Score   float64 `json:"score" cbor:"score"`
	XMin    float64 `json:"x_min" cbor:"x_min"`
	YMin    float64 `json:"y_min" cbor:"y_min"`
	XMax    float64 `json:"x_max" cbor:"x_max"`
	YMax    float64 `json:"y_max" cbor:"y_max"`
}

// Detections список рамок одного кадра
type Detections []Detection

func (Classification) isInferenceResult() {}
func (Detections) isInferenceResult()     {}

// detectionFields количество полей в кортеже детекции
const detectionFields = 6

// ErrResultShape сообщение сервера не совпадает с ожидаемой формой результата
var ErrResultShape = errors.New("unexpected result shape")

// DecodeResult разбирает ответ сервера в форме, выбранной по типу модели.
// Всё, что не classifier, разбирается как детектор.
func DecodeResult(kind ModelType, raw []byte) (InferenceResult, error) {
	if kind == ModelClassifier {
		return decodeClassification(raw)
	}
	return decodeDetections(raw)
}

func decodeClassification(raw []byte) (Classification, error) {
	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return Classification{}, fmt.Errorf("decode classification: %w", err)
	}
	if len(values) == 0 {
		return Classification{}, fmt.Errorf("decode classification: %w: empty array", ErrResultShape)
	}
	return Classification{ClassID: int(values[0])}, nil
}

func decodeDetections(raw []byte) (Detections, error) {
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}

	detections := make(Detections, 0, len(rows))
	for i, row := range rows {
		if len(row) != detectionFields {
			return nil, fmt.Errorf("decode detections: %w: row %d has %d fields", ErrResultShape, i, len(row))
		}
		detections = append(detections, Detection{
			ClassID: int(row[0]),
			Score:   row[1],
			XMin:    row[2],
			YMin:    row[3],
			XMax:    row[4],
			YMax:    row[5],
		})
	}
	return detections, nil
}
