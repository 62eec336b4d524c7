package entity

import "strconv"

// Labels имена классов, индекс совпадает с class_id
type Labels []string

// Name возвращает имя класса или "#<id>", если таблицы нет или id вне её.
func (l Labels) Name(classID int) string {
	if classID < 0 || classID >= len(l) {
		return "#" + strconv.Itoa(classID)
	}
	return l[classID]
}
