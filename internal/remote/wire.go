package remote

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/yukikurage/taskflow/internal/models"
)

// The remote API has shipped several record shapes. They are reconciled into the
// canonical models here and nowhere else.

func firstString(m map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func firstStrings(m map[string]json.RawMessage, keys ...string) []string {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return list
		}
		var csv string
		if err := json.Unmarshal(raw, &csv); err == nil {
			var out []string
			for _, p := range strings.Split(csv, ",") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return nil
}

func firstTime(m map[string]json.RawMessage, keys ...string) time.Time {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var t time.Time
		if err := json.Unmarshal(raw, &t); err == nil {
			return t
		}
		var ms int64
		if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Time{}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// TaskFromWire reconciles one remote task record.
func TaskFromWire(m map[string]json.RawMessage) models.Task {
	return models.Task{
		ID:          firstString(m, "TaskID", "taskId", "id", "ID"),
		Name:        firstString(m, "Name", "name", "taskName", "TaskName"),
		Description: firstString(m, "Description", "description", "taskDescription"),
		CreatedBy:   firstString(m, "CreatedBy", "createdBy", "created_by"),
		AssignedTo:  firstStrings(m, "AssignedTo", "assignedTo", "assignedUsers"),
		FileKey:     optional(firstString(m, "FileKey", "fileKey")),
		FileURL:     optional(firstString(m, "FileURL", "FileUrl", "fileUrl", "fileURL")),
		CreatedAt:   firstTime(m, "CreatedAt", "createdAt", "created_at"),
	}
}

// UserFromWire reconciles one remote user record.
func UserFromWire(m map[string]json.RawMessage) models.User {
	return models.User{
		ID:       firstString(m, "UserID", "userId", "id"),
		Username: firstString(m, "Username", "username", "name"),
		Email:    firstString(m, "Email", "email"),
		Role:     firstString(m, "Role", "role"),
	}
}

// decodeList accepts a bare array or an object wrapping the array under one of keys.
func decodeList(body []byte, keys ...string) ([]map[string]json.RawMessage, error) {
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, err
	}
	for _, k := range keys {
		raw, ok := wrapper[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	return []map[string]json.RawMessage{}, nil
}

// taskPayload is the create/update body the task functions accept.
type taskPayload struct {
	TaskID          string   `json:"taskId"`
	TaskName        string   `json:"taskName"`
	TaskDescription string   `json:"taskDescription"`
	CreatedBy       string   `json:"createdBy"`
	AssignedUsers   []string `json:"assignedUsers"`
	FileKey         string   `json:"fileKey,omitempty"`
	FileURL         string   `json:"fileUrl,omitempty"`
	CreatedAt       string   `json:"createdAt"`
}

func taskToWire(t *models.Task) taskPayload {
	p := taskPayload{
		TaskID:          t.ID,
		TaskName:        t.Name,
		TaskDescription: t.Description,
		CreatedBy:       t.CreatedBy,
		AssignedUsers:   t.AssignedTo,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.AssignedUsers == nil {
		p.AssignedUsers = []string{}
	}
	if t.FileKey != nil {
		p.FileKey = *t.FileKey
	}
	if t.FileURL != nil {
		p.FileURL = *t.FileURL
	}
	return p
}
