package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tsiory-dev/garagesync/internal/common"
)

const defaultBaseURL = "https://firestore.googleapis.com/v1"

// Client talks to the Firestore REST API of one project's default database.
// Every call carries a bounded timeout and transient failures are retried
// with fibonacci backoff before surfacing common.ErrRemoteIO.
type Client struct {
	baseURL    string
	projectID  string
	tokens     TokenSource
	httpClient *http.Client
	timeout    time.Duration
}

func NewClient(projectID string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		projectID:  projectID,
		tokens:     tokens,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

func (c *Client) collectionURL(collection string) string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents/%s",
		c.baseURL, c.projectID, collection)
}

// GetCollection lists the documents of a collection in the store's natural
// iteration order.
func (c *Client) GetCollection(ctx context.Context, collection string) ([]Document, error) {
	var body struct {
		Documents []Document `json:"documents"`
	}

	err := c.do(ctx, http.MethodGet, c.collectionURL(collection), nil, &body)
	if err != nil {
		return nil, err
	}

	return body.Documents, nil
}

// PatchDocument updates only the masked fields of an existing document.
func (c *Client) PatchDocument(ctx context.Context, collection, id string, fieldMask []string, fields map[string]Value) error {
	u := c.collectionURL(collection) + "/" + id

	q := url.Values{}
	for _, f := range fieldMask {
		q.Add("updateMask.fieldPaths", f)
	}
	u += "?" + q.Encode()

	payload := map[string]any{"fields": fields}
	return c.do(ctx, http.MethodPatch, u, payload, nil)
}

// CreateDocument adds a document with a server-assigned id and returns that id.
func (c *Client) CreateDocument(ctx context.Context, collection string, fields map[string]Value) (string, error) {
	payload := map[string]any{"fields": fields}

	var created Document
	if err := c.do(ctx, http.MethodPost, c.collectionURL(collection), payload, &created); err != nil {
		return "", err
	}

	return created.ID(), nil
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			body = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("status %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("status %s: %s", resp.Status, string(b))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", common.ErrRemoteIO, method, url, err)
	}
	return nil
}
