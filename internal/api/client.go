package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookdesk/internal/models"
)

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

var _ Service = (*Client)(nil)

// NewClient creates a client for the service rooted at baseURL
// (e.g. "http://localhost:5000/api").
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetToken installs the bearer token used on authenticated calls.
// An empty token clears the session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// serverError is the error envelope the service uses on failures.
type serverError struct {
	Message string `json:"message"`
}

// do issues one request and decodes the JSON response into out (when
// out is non-nil). Exactly one request per call; a failure is wrapped
// in *RemoteError with the server's message when one was given.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &RemoteError{Message: FallbackMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := FallbackMessage
		var envelope serverError
		if data, readErr := io.ReadAll(resp.Body); readErr == nil {
			if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
				msg = envelope.Message
			}
		}
		c.logger.Warn("Server reported failure",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return &RemoteError{Message: msg, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Message: FallbackMessage, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string, role models.Role) (Credentials, error) {
	var creds Credentials
	payload := map[string]string{"email": email, "password": password, "role": string(role)}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string, role models.Role) (models.User, error) {
	var user models.User
	payload := map[string]string{"name": name, "email": email, "password": password, "role": string(role)}
	if err := c.do(ctx, http.MethodPost, "/auth/register", payload, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (c *Client) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.do(ctx, http.MethodGet, "/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) AddBook(ctx context.Context, book models.Book) (models.Book, error) {
	var created models.Book
	if err := c.do(ctx, http.MethodPost, "/books", book, &created); err != nil {
		return models.Book{}, err
	}
	return created, nil
}

func (c *Client) UpdateBook(ctx context.Context, id string, book models.Book) (models.Book, error) {
	var updated models.Book
	if err := c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(id), book, &updated); err != nil {
		return models.Book{}, err
	}
	return updated, nil
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/books/"+url.PathEscape(id), nil, nil)
}

func (c *Client) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	path := "/librarian/users/find?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// lendRequest matches the lend endpoint's contract: the due date
// travels as RFC 3339 text.
type lendRequest struct {
	UserID  string `json:"userId"`
	BookID  string `json:"bookId"`
	DueDate string `json:"dueDate"`
}

func (c *Client) Lend(ctx context.Context, userID, bookID string, dueDate time.Time) (models.Borrow, error) {
	var borrow models.Borrow
	req := lendRequest{UserID: userID, BookID: bookID, DueDate: dueDate.Format(time.RFC3339)}
	if err := c.do(ctx, http.MethodPost, "/librarian/lend", req, &borrow); err != nil {
		return models.Borrow{}, err
	}
	return borrow, nil
}

func (c *Client) Return(ctx context.Context, borrowID string, condition models.Condition, notes string) (models.Borrow, error) {
	var borrow models.Borrow
	payload := map[string]string{"condition": string(condition), "notes": notes}
	if err := c.do(ctx, http.MethodPut, "/borrows/return/"+url.PathEscape(borrowID), payload, &borrow); err != nil {
		return models.Borrow{}, err
	}
	return borrow, nil
}

func (c *Client) Extend(ctx context.Context, borrowID string, newDueDate time.Time) (models.Borrow, error) {
	var borrow models.Borrow
	payload := map[string]string{"newDueDate": newDueDate.Format(time.RFC3339)}
	if err := c.do(ctx, http.MethodPut, "/librarian/extend/"+url.PathEscape(borrowID), payload, &borrow); err != nil {
		return models.Borrow{}, err
	}
	return borrow, nil
}

func (c *Client) ActiveBorrows(ctx context.Context) ([]models.Borrow, error) {
	return c.listBorrows(ctx, "/borrows/active")
}

func (c *Client) OverdueBorrows(ctx context.Context) ([]models.Borrow, error) {
	return c.listBorrows(ctx, "/borrows/overdue")
}

func (c *Client) MyBorrows(ctx context.Context) ([]models.Borrow, error) {
	return c.listBorrows(ctx, "/borrows/my-borrows")
}

func (c *Client) listBorrows(ctx context.Context, path string) ([]models.Borrow, error) {
	var borrows []models.Borrow
	if err := c.do(ctx, http.MethodGet, path, nil, &borrows); err != nil {
		return nil, err
	}
	return borrows, nil
}
