package port

// Display окно с результатом
type Display interface {
	// Show показывает кадр и сообщает, нажал ли пользователь клавишу выхода
	Show(frame Frame) (quit bool, err error)

	// Close закрывает окно
	Close() error
}
