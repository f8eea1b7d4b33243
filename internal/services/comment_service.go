package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
)

var ErrEmptyComment = errors.New("comment text or an attachment is required")

// CommentService handles comment threads and their attachments.
type CommentService struct {
	commentRepo repository.CommentRepository
	attachments *AttachmentService
}

func NewCommentService(commentRepo repository.CommentRepository, attachments *AttachmentService) *CommentService {
	return &CommentService{commentRepo: commentRepo, attachments: attachments}
}

// UploadFile is one file submitted with a comment.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type AddCommentInput struct {
	TaskID string
	UserID string
	Text   string
	Files  []UploadFile
}

type AddCommentResult struct {
	Comment *models.Comment
	Uploads []repository.StepResult
}

// AddComment uploads the files and stores the comment. A file that fails to upload is
// skipped and reported; the comment is still stored.
func (s *CommentService) AddComment(ctx context.Context, input AddCommentInput) (*AddCommentResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Files) == 0 {
		return nil, ErrEmptyComment
	}
	if strings.TrimSpace(input.TaskID) == "" {
		return nil, ErrMissingFields
	}

	comment := &models.Comment{
		TaskID: input.TaskID,
		UserID: input.UserID,
		Text:   text,
	}

	result := &AddCommentResult{Comment: comment}
	for _, f := range input.Files {
		step := "upload:" + f.Name
		key, err := s.attachments.Upload(ctx, constants.CommentKeyPrefix, f.Name, f.Body, f.Size, f.ContentType)
		if err != nil {
			slog.Warn("failed to upload comment attachment", "task_id", input.TaskID, "file", f.Name, "error", err)
			result.Uploads = append(result.Uploads, repository.StepFailed(step, err))
			continue
		}
		comment.FileKeys = append(comment.FileKeys, key)
		comment.FileNames = append(comment.FileNames, f.Name)
		result.Uploads = append(result.Uploads, repository.StepOK(step))
	}

	if comment.Text == "" && len(comment.FileKeys) == 0 {
		return result, ErrEmptyComment
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return result, fmt.Errorf("failed to create comment: %w", err)
	}
	return result, nil
}

// ResolvedFile is a comment attachment with a freshly signed URL. URL is empty when
// signing failed.
type ResolvedFile struct {
	Index int
	Key   string
	Name  string
	URL   string
}

type ResolvedComment struct {
	models.Comment
	Files []ResolvedFile
}

// ListForTask returns the task's comments, newest first, with attachment URLs signed
// concurrently for 60 seconds.
func (s *CommentService) ListForTask(ctx context.Context, taskID string) ([]ResolvedComment, error) {
	comments, err := s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	out := make([]ResolvedComment, len(comments))
	var keys []string
	for i, c := range comments {
		out[i].Comment = c
		for j, a := range c.Attachments() {
			out[i].Files = append(out[i].Files, ResolvedFile{Index: j, Key: a.Key, Name: a.Name})
			keys = append(keys, a.Key)
		}
	}

	urls := s.attachments.ResolveURLs(ctx, keys, constants.ListURLTTL)
	n := 0
	for i := range out {
		for j := range out[i].Files {
			out[i].Files[j].URL = urls[n]
			n++
			if out[i].Files[j].URL == "" && len(out[i].FileKeys) == 0 && out[i].FileURL != nil {
				out[i].Files[j].URL = *out[i].FileURL
			}
		}
	}
	return out, nil
}
