package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// SplitCSV splits a comma separated list, trimming entries and dropping empty ones.
func SplitCSV(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeIDs trims ids, drops empties and removes duplicates, keeping first-seen order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GetAssignedUsers reads assignees from a form that may send either one CSV value
// or repeated fields.
func GetAssignedUsers(c *gin.Context, field string) []string {
	values := c.PostFormArray(field)
	if len(values) == 0 {
		values = c.PostFormArray(field + "[]")
	}

	var ids []string
	for _, v := range values {
		ids = append(ids, SplitCSV(v)...)
	}
	return NormalizeIDs(ids)
}

// GetIntQuery parses an integer query parameter, returning def when absent or malformed.
func GetIntQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
