package entity

// Palette таблица различимых цветов для классов
type Palette []Color

// GeneratePalette делит круг оттенков на n+1 часть и берёт первые n оттенков
// при насыщенности и яркости 1. Результат зависит только от n.
func GeneratePalette(n int) Palette {
	if n <= 0 {
		return Palette{}
	}

	partition := 1.0 / float64(n+1)
	palette := make(Palette, n)
	for i := range palette {
		r, g, b := hsvToRGB(partition*float64(i), 1, 1)
		palette[i] = Color{
			R: uint8(255 * r),
			G: uint8(255 * g),
			B: uint8(255 * b),
		}
	}
	return palette
}

// At возвращает цвет класса по модулю размера палитры
func (p Palette) At(classID int) Color {
	if len(p) == 0 {
		return Color{R: 255, G: 255, B: 255}
	}
	i := classID % len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
