package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New возвращает строковый идентификатор, упорядоченный по времени создания.
// Фиксированная ширина: 12 hex-символов миллисекунд + 10 hex-символов случайного
// суффикса, поэтому лексикографический порядок совпадает с хронологическим.
func New() string {
	buf := make([]byte, 5)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%012x%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}

// Time извлекает момент создания из идентификатора.
func Time(id string) (time.Time, bool) {
	if len(id) < 12 {
		return time.Time{}, false
	}
	var millis int64
	if _, err := fmt.Sscanf(id[:12], "%012x", &millis); err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}
