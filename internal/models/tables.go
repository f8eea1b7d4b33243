package models

import (
	"path"
	"strings"
)

// TableNames maps each record type to its backing table.
type TableNames struct {
	Users           string
	Tasks           string
	TaskAssignments string
	Comments        string
}

var tableNames = DefaultTableNames()

func DefaultTableNames() TableNames {
	return TableNames{
		Users:           "users",
		Tasks:           "tasks",
		TaskAssignments: "task_assignments",
		Comments:        "comments",
	}
}

// SetTableNames overrides table names. Empty fields keep their defaults.
// Must be called before the first query.
func SetTableNames(names TableNames) {
	def := DefaultTableNames()
	if names.Users == "" {
		names.Users = def.Users
	}
	if names.Tasks == "" {
		names.Tasks = def.Tasks
	}
	if names.TaskAssignments == "" {
		names.TaskAssignments = def.TaskAssignments
	}
	if names.Comments == "" {
		names.Comments = def.Comments
	}
	tableNames = names
}

func CurrentTableNames() TableNames {
	return tableNames
}

// baseName strips the key prefix and the millisecond timestamp from an object key.
func baseName(key string) string {
	name := path.Base(key)
	if i := strings.Index(name, "_"); i > 0 {
		allDigits := true
		for _, r := range name[:i] {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return name[i+1:]
		}
	}
	return name
}

// DisplayName returns the original file name encoded in an object key.
func DisplayName(key string) string {
	return baseName(key)
}
