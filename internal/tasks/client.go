package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"spm-client/internal/httpx"
)

var ErrAttachmentType = errors.New("attachment must be a pdf, png, jpg or jpeg file")

var allowedAttachment = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}

// Doer is the transport the client needs; *httpx.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, body any) ([]byte, error)
	Upload(ctx context.Context, path, field, filename string, r io.Reader) ([]byte, error)
}

type Client struct {
	http     Doer
	validate *validator.Validate
}

var validate = mustValidator()

func mustValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("deadline", validDeadline); err != nil {
		panic(fmt.Sprintf("register deadline validation: %v", err))
	}
	return v
}

func NewClient(d Doer) *Client {
	return &Client{http: d, validate: validate}
}

type CreateTaskInput struct {
	Title         string  `json:"title" validate:"required"`
	Description   string  `json:"description" validate:"required"`
	Deadline      string  `json:"deadline" validate:"required,deadline"`
	EmployeeID    int     `json:"employee_id" validate:"required,gt=0"`
	Role          string  `json:"role" validate:"required,oneof=Staff Manager Director HR"`
	Attachment    *string `json:"attachment,omitempty"`
	Priority      *int    `json:"priority,omitempty" validate:"omitempty,min=1,max=10"`
	ProjectID     *int    `json:"project_id,omitempty"`
	ParentID      *int    `json:"parent_id,omitempty"`
	Collaborators []int   `json:"collaborators,omitempty" validate:"omitempty,dive,gt=0"`
}

// Attachment is the upload endpoint's answer; FilePath goes into CreateTaskInput.Attachment.
type Attachment struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
	Filename string `json:"filename"`
}

// ListPayload fetches GET /tasks and classifies it without flattening.
func (c *Client) ListPayload(ctx context.Context) (Payload, error) {
	raw, err := c.http.Do(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, httpx.ErrInvalidJSON
	}
	return ParsePayload(raw), nil
}

// List fetches GET /tasks and returns the normalized task list.
func (c *Client) List(ctx context.Context) ([]Task, error) {
	p, err := c.ListPayload(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(p), nil
}

// Create posts a new task and returns the service's response as is.
func (c *Client) Create(ctx context.Context, in CreateTaskInput) (json.RawMessage, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	raw, err := c.http.Do(ctx, http.MethodPost, "/tasks", in)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, httpx.ErrInvalidJSON
	}
	return raw, nil
}

// UpdateProject moves a task to another project and owner.
func (c *Client) UpdateProject(ctx context.Context, taskID, projectID, owner int) (json.RawMessage, error) {
	body := map[string]any{"project_id": projectID, "owner": owner}
	raw, err := c.http.Do(ctx, http.MethodPut, fmt.Sprintf("/task/%d", taskID), body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, httpx.ErrInvalidJSON
	}
	return raw, nil
}

func (c *Client) UploadAttachment(ctx context.Context, filename string, r io.Reader) (Attachment, error) {
	if !allowedAttachment[strings.ToLower(filepath.Ext(filename))] {
		return Attachment{}, ErrAttachmentType
	}
	raw, err := c.http.Upload(ctx, "/upload-attachment", "attachment", filepath.Base(filename), r)
	if err != nil {
		return Attachment{}, err
	}
	var a Attachment
	if err := httpx.DecodeJSON(raw, &a); err != nil {
		return Attachment{}, err
	}
	return a, nil
}

func validDeadline(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, layout := range []string{time.DateOnly, "2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
