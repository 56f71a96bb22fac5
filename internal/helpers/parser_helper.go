package helpers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

func ParseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid ID format")
	}
	return id, nil
}

// ParseClockTime validates an HH:mm string and returns it normalized.
func ParseClockTime(s string) (string, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("invalid time format, expected HH:mm")
	}
	return t.Format("15:04"), nil
}
