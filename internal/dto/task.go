package dto

import (
	"time"

	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/services"
)

// UserDTO represents a user in search responses and pickers
type UserDTO struct {
	ID       string `json:"UserID"`
	Username string `json:"Username"`
	Email    string `json:"Email"`
}

// PersonView is a user id with its resolved display name
type PersonView struct {
	ID   string
	Name string
}

// TaskView is a task prepared for rendering
type TaskView struct {
	ID          string
	Name        string
	Description string
	CreatedBy   PersonView
	Assignees   []PersonView
	FileKey     string
	FileName    string
	FileURL     string
	CreatedAt   time.Time
	IsCreator   bool
}

// CommentView is a comment prepared for rendering
type CommentView struct {
	ID        string
	Author    PersonView
	Text      string
	CreatedAt time.Time
	Files     []FileView
}

// FileView is one downloadable attachment
type FileView struct {
	Source     string
	CommentID  string
	Index      int
	Key        string
	Name       string
	URL        string
	UploadedBy PersonView
	UploadedAt time.Time
}

// Conversion functions

func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

func person(names map[string]string, id string) PersonView {
	return PersonView{ID: id, Name: services.DisplayName(names, id)}
}

// ToTaskView converts a task. url is the signed attachment URL, if any.
func ToTaskView(task models.Task, names map[string]string, url, viewerID string) TaskView {
	view := TaskView{
		ID:          task.ID,
		Name:        task.Name,
		Description: task.Description,
		CreatedBy:   person(names, task.CreatedBy),
		Assignees:   make([]PersonView, 0, len(task.AssignedTo)),
		FileKey:     task.AttachmentKey(),
		FileURL:     url,
		CreatedAt:   task.CreatedAt,
		IsCreator:   task.IsCreator(viewerID),
	}
	if view.FileKey != "" {
		view.FileName = models.DisplayName(view.FileKey)
	}
	for _, id := range task.AssignedTo {
		view.Assignees = append(view.Assignees, person(names, id))
	}
	return view
}

func ToTaskViews(tasks []models.Task, names map[string]string, urls map[string]string, viewerID string) []TaskView {
	out := make([]TaskView, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskView(t, names, urls[t.ID], viewerID)
	}
	return out
}

func ToCommentViews(comments []services.ResolvedComment, names map[string]string) []CommentView {
	out := make([]CommentView, len(comments))
	for i, c := range comments {
		view := CommentView{
			ID:        c.ID,
			Author:    person(names, c.UserID),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}
		for _, f := range c.Files {
			view.Files = append(view.Files, FileView{
				Source:     "comment",
				CommentID:  c.ID,
				Index:      f.Index,
				Key:        f.Key,
				Name:       f.Name,
				URL:        f.URL,
				UploadedBy: view.Author,
				UploadedAt: c.CreatedAt,
			})
		}
		out[i] = view
	}
	return out
}

func ToFileViews(entries []services.FileEntry, names map[string]string) []FileView {
	out := make([]FileView, len(entries))
	for i, e := range entries {
		out[i] = FileView{
			Source:     e.Source,
			CommentID:  e.CommentID,
			Index:      e.Index,
			Key:        e.Key,
			Name:       e.Name,
			URL:        e.URL,
			UploadedBy: person(names, e.UploadedBy),
			UploadedAt: e.UploadedAt,
		}
	}
	return out
}
