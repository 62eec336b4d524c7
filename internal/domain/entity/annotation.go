package entity

import (
	"image"
	"image/color"
)

// AnnotationKind вид примитива для отрисовки
type AnnotationKind string

const (
	AnnotationText AnnotationKind = "text" // подпись
	AnnotationRect AnnotationKind = "rect" // прямоугольник
)

// Annotation команда отрисовки поверх кадра камеры
type Annotation struct {
	Kind AnnotationKind `json:"kind"`
	// Label имя класса; для text это и есть выводимый текст
	Label string `json:"label"`
	// Origin левый нижний угол текста
	Origin image.Point `json:"origin"`
	// Rect рамка, только для rect
	Rect      image.Rectangle `json:"rect"`
	Color     Color           `json:"color"`
	Scale     float64         `json:"scale,omitempty"`
	Thickness int             `json:"thickness"`
}

// Color цвет в 8-битном RGB
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBA приводит цвет к image/color
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
