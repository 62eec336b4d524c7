package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidModelInfo описание модели без размера входа
var ErrInvalidModelInfo = errors.New("invalid model info")

// PayloadChannels количество каналов в кадре, отправляемом серверу (RGB)
const PayloadChannels = 3

// ModelType тип модели на стороне inference-сервера
type ModelType string

const (
	ModelClassifier ModelType = "classifier" // классификатор: один class_id на кадр
	ModelDetector   ModelType = "detector"   // детектор: список рамок на кадр
)

// ModelInfo описывает модель сервера. Приходит один раз в начале сессии,
// после чего дополняется размером кадра камеры и больше не меняется.
type ModelInfo struct {
	Type        ModelType  `json:"type" cbor:"type"`
	InputWidth  int        `json:"input_width" cbor:"input_width"`
	InputHeight int        `json:"input_height" cbor:"input_height"`
	FrameWidth  int        `json:"frame_width" cbor:"frame_width"`
	FrameHeight int        `json:"frame_height" cbor:"frame_height"`
	Ratio       [2]float64 `json:"ratio" cbor:"ratio"` // (frame_width/input_width, frame_height/input_height)
}

// ParseModelInfo разбирает первое сообщение сервера.
// Поле type не проверяется: любое первое сообщение считается описанием модели.
// Размер входа обязан быть положительным.
func ParseModelInfo(raw []byte) (*ModelInfo, error) {
	var info ModelInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode model info: %w", err)
	}
	if info.InputWidth <= 0 || info.InputHeight <= 0 {
		return nil, fmt.Errorf("%w: input size %dx%d", ErrInvalidModelInfo, info.InputWidth, info.InputHeight)
	}
	return &info, nil
}

// WithFrame возвращает копию с размером кадра камеры и посчитанным ratio.
func (m ModelInfo) WithFrame(frameWidth, frameHeight int) ModelInfo {
	m.FrameWidth = frameWidth
	m.FrameHeight = frameHeight
	m.Ratio = [2]float64{
		float64(frameWidth) / float64(m.InputWidth),
		float64(frameHeight) / float64(m.InputHeight),
	}
	return m
}

// IsClassifier сообщает, нужно ли рисовать результат как классификацию
func (m ModelInfo) IsClassifier() bool {
	return m.Type == ModelClassifier
}

// PayloadSize размер кадра в байтах, который ожидает сервер
func (m ModelInfo) PayloadSize() int {
	return m.InputWidth * m.InputHeight * PayloadChannels
}
