package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds a registration call. The manager blocks on the
// call, so a hung registry must not hang entity creation forever.
const DefaultTimeout = 10 * time.Second

// Client announces players to a remote registry service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOptions configures the HTTP registry client.
type ClientOptions struct {
	Timeout time.Duration // defaults to DefaultTimeout
}

// NewClient creates a client for the registry at baseURL.
func NewClient(baseURL string, opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// registerRequest is the wire form of a registration.
type registerRequest struct {
	ManagerID int `json:"manager_id"`
	EntityID  int `json:"entity_id"`
}

// RegisterPlayer POSTs the registration and treats any non-2xx response
// as failure. No retries; the caller owns recovery policy.
func (c *Client) RegisterPlayer(managerID, entityID int) error {
	body, err := json.Marshal(registerRequest{ManagerID: managerID, EntityID: entityID})
	if err != nil {
		return errors.Wrap(err, "encode registration")
	}

	url := c.baseURL + "/players"
	resp, err := c.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "post %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short excerpt of the response for the error message.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return errors.Errorf("registry rejected player (manager %d, entity %d): %s: %s",
			managerID, entityID, resp.Status, bytes.TrimSpace(excerpt))
	}
	return nil
}

// String identifies the client's target for log lines.
func (c *Client) String() string {
	return fmt.Sprintf("registry at %s", c.baseURL)
}
