package benchutil

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Client talks to a running BlogIn server as one device session.
type Client struct {
	Base   string
	HTTP   *http.Client
	Token  string
	UserID string
}

// NewHTTPClient returns a client that accepts the server's self-signed
// certificate when insecure is set.
func NewHTTPClient(insecure bool) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
		},
		Timeout: 10 * time.Second,
	}
}

// SignUp opens a session and registers a fake user on it.
func SignUp(ctx context.Context, hc *http.Client, base string) (*Client, error) {
	c := &Client{Base: base, HTTP: hc}

	var sess struct {
		Token string `json:"token"`
	}
	if _, err := c.Do(ctx, http.MethodPost, "/sessions", nil, &sess); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	c.Token = sess.Token

	var user struct {
		ID string `json:"id"`
	}
	body := map[string]string{"name": gofakeit.Name(), "email": gofakeit.Email()}
	if _, err := c.Do(ctx, http.MethodPost, "/signup", body, &user); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	c.UserID = user.ID
	return c, nil
}

// Do sends body as JSON and decodes a 2xx reply into out. Non-2xx replies
// are returned as errors along with the status code.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

// NewPost returns a create-post payload that passes validation.
func NewPost() map[string]string {
	return map[string]string{
		"title":   gofakeit.Sentence(4),
		"content": gofakeit.Paragraph(2, 5, 12, " "),
		"tags":    gofakeit.Hobby() + ", " + gofakeit.BuzzWord(),
	}
}
