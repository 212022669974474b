package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"spm-client/internal/httpx"
)

var (
	ErrInvalidLogin   = errors.New("invalid email or password")
	ErrEmployeeExists = errors.New("employee already exists")
)

// Employee is what the login service tells us about the signed-in user.
type Employee struct {
	EmployeeID int    `json:"employee_id"`
	Role       string `json:"role"`
}

type RegisterInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmployeeName string `json:"employee_name"`
	Department   string `json:"department"`
	Role         string `json:"role"`
}

type Doer interface {
	DoJSON(ctx context.Context, method, path string, body, out any) error
}

// Client talks to the login service.
type Client struct {
	http Doer
}

func NewClient(d Doer) *Client {
	return &Client{http: d}
}

func (c *Client) Login(ctx context.Context, email, password string) (Employee, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Employee{}, ErrInvalidLogin
	}

	var e Employee
	body := map[string]string{"email": email, "password": password}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/login", body, &e); err != nil {
		switch httpx.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusNotFound:
			return Employee{}, ErrInvalidLogin
		}
		return Employee{}, fmt.Errorf("login: %w", err)
	}
	if e.EmployeeID <= 0 {
		return Employee{}, fmt.Errorf("login: %w", httpx.ErrInvalidJSON)
	}
	return e, nil
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (Employee, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return Employee{}, fmt.Errorf("email & password required")
	}

	var e Employee
	if err := c.http.DoJSON(ctx, http.MethodPost, "/register", in, &e); err != nil {
		if httpx.StatusCode(err) == http.StatusConflict {
			return Employee{}, ErrEmployeeExists
		}
		return Employee{}, fmt.Errorf("register: %w", err)
	}
	return e, nil
}
