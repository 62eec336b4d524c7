package entity

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Tick итог одного обмена кадр/результат
type Tick struct {
	Seq         uint64          `json:"seq"`
	Time        time.Time       `json:"time"`
	Raw         json.RawMessage `json:"raw"`
	Result      InferenceResult `json:"result,omitempty"` // nil, если ответ не удалось разобрать
	Annotations []Annotation    `json:"annotations"`
}

// Labels возвращает имена классов, попавших в отрисовку (без повторов)
func (t Tick) Labels() []string {
	seen := make(map[string]struct{})
	labels := make([]string, 0, len(t.Annotations))
	for _, a := range t.Annotations {
		if _, ok := seen[a.Label]; ok {
			continue
		}
		seen[a.Label] = struct{}{}
		labels = append(labels, a.Label)
	}
	return labels
}

// Summary короткое описание кадра вида "car x2, dog"
func (t Tick) Summary() string {
	counts := make(map[string]int)
	for _, a := range t.Annotations {
		if a.Kind == AnnotationText {
			counts[a.Label]++
		}
	}
	if len(counts) == 0 {
		return "nothing"
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if counts[name] > 1 {
			parts = append(parts, name+" x"+strconv.Itoa(counts[name]))
			continue
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}
