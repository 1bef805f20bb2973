package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateOnly = "2006-01-02"

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates, the
// latter read as midnight UTC.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid due_date %q", raw)
}

func parseOptionalDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := ParseDueDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *CreateTaskRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Status      *Status `json:"status"`
		DueDate     *string `json:"due_date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	due, err := parseOptionalDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	if aux.Status != nil && *aux.Status == "" {
		aux.Status = nil
	}
	*r = CreateTaskRequest{Title: aux.Title, Description: aux.Description, Status: aux.Status, DueDate: due}
	return nil
}

func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	var aux struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *Status `json:"status"`
		DueDate     *string `json:"due_date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	due, err := parseOptionalDueDate(aux.DueDate)
	if err != nil {
		return err
	}
	*p = TaskPatch{Title: aux.Title, Description: aux.Description, Status: aux.Status, DueDate: due}
	return nil
}
