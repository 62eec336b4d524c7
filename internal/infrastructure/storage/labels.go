package storage

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"nn-client/internal/domain/entity"
)

// LoadLabels читает файл меток: одна метка на строку, индекс = номер строки.
// Пробелы по краям строки отбрасываются.
func LoadLabels(path string) (entity.Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels entity.Labels
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	return labels, nil
}
