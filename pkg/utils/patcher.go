// Файл: utils/patcher.go
package utils

import (
	"encoding/json"
	"fmt"
)

// SentFields возвращает множество ключей верхнего уровня, присутствующих в теле запроса.
// Нужен, чтобы отличить "поле не передано" от "поле передано как null".
func SentFields(rawRequestBody []byte) (map[string]bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rawRequestBody, &raw); err != nil {
		return nil, fmt.Errorf("тело запроса не является JSON-объектом: %w", err)
	}
	fields := make(map[string]bool, len(raw))
	for key := range raw {
		fields[key] = true
	}
	return fields, nil
}
