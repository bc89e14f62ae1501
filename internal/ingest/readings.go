package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"iheartcare/internal/domain"
)

var errEmptyPayload = errors.New("empty payload")

// ParseReadings accepts a single JSON reading, an array of readings,
// or an object carrying them under "readings".
func ParseReadings(payload []byte) ([]domain.Reading, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, errEmptyPayload
	}

	if payload[0] == '[' {
		var list []domain.Reading
		if err := json.Unmarshal(payload, &list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal readings: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Readings *[]domain.Reading `json:"readings"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	if wrapped.Readings != nil {
		return *wrapped.Readings, nil
	}

	var one domain.Reading
	if err := json.Unmarshal(payload, &one); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return []domain.Reading{one}, nil
}
