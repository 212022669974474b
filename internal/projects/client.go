package projects

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"spm-client/internal/httpx"
)

type Project struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	Status     string    `json:"status"`
	TasksDone  int       `json:"tasksDone"`
	TasksTotal int       `json:"tasksTotal"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Progress is the done ratio in [0, 1]; 0 for projects without tasks.
func (p Project) Progress() float64 {
	if p.TasksTotal <= 0 {
		return 0
	}
	return float64(p.TasksDone) / float64(p.TasksTotal)
}

// CreateProjectInput leaves unset fields to the service defaults
// ("Untitled Project", "Unassigned", "Active", 0, 0).
type CreateProjectInput struct {
	Name       string `json:"name,omitempty" validate:"max=255"`
	Owner      string `json:"owner,omitempty" validate:"max=255"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=Active Archived"`
	TasksDone  int    `json:"tasksDone,omitempty" validate:"gte=0,ltefield=TasksTotal"`
	TasksTotal int    `json:"tasksTotal,omitempty" validate:"gte=0"`
}

type Doer interface {
	DoJSON(ctx context.Context, method, path string, body, out any) error
}

type Client struct {
	http     Doer
	validate *validator.Validate
}

func NewClient(d Doer) *Client {
	return &Client{http: d, validate: validator.New()}
}

// compile-time check that the shared transport fits
var _ Doer = (*httpx.Client)(nil)

func (c *Client) List(ctx context.Context) ([]Project, error) {
	out := []Project{}
	if err := c.http.DoJSON(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, in CreateProjectInput) (Project, error) {
	if err := c.validate.Struct(in); err != nil {
		return Project{}, fmt.Errorf("invalid project: %w", err)
	}
	var p Project
	if err := c.http.DoJSON(ctx, http.MethodPost, "/projects", in, &p); err != nil {
		return Project{}, err
	}
	return p, nil
}

func (c *Client) Archive(ctx context.Context, id int) (Project, error) {
	var p Project
	if err := c.http.DoJSON(ctx, http.MethodPatch, fmt.Sprintf("/projects/%d/archive", id), nil, &p); err != nil {
		return Project{}, err
	}
	return p, nil
}
