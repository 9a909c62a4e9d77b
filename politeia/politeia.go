package politeia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"decred.org/dcrwallet/v2/errors"
	www "github.com/decred/politeia/politeiawww/api/www/v1"
	"github.com/decred/politeia/util"
)

const (
	DefaultHost = "https://proposals.decred.org"
	apiPath     = "/api/v1"

	versionPath      = "/version"
	userVotesPath    = "/user/votes"
	proposalPath     = "/proposals/%s"
	claimRewardsPath = "/proposals/%s/claim"

	requestIDHeader = "X-Request-Id"

	csrfTokenLifetime = time.Hour * 23
	httpClientTimeout = time.Second * 60
)

// Client talks to a politeia style proposal server over HTTP. It implements
// RemoteProposalClient.
type Client struct {
	host       string
	httpClient *http.Client

	mu                 sync.Mutex
	csrfToken          string
	cookies            []*http.Cookie
	csrfTokenExpiresAt time.Time
}

var _ RemoteProposalClient = (*Client)(nil)

// New returns a Client for the server at host. An empty host selects
// DefaultHost.
func New(host string) *Client {
	return NewWithHTTPClient(host, &http.Client{
		Timeout: httpClientTimeout,
	})
}

// NewWithHTTPClient is like New but sends requests through httpClient.
func NewWithHTTPClient(host string, httpClient *http.Client) *Client {
	if host == "" {
		host = DefaultHost
	}

	return &Client{
		host:       strings.TrimSuffix(host, "/"),
		httpClient: httpClient,
	}
}

// Host returns the server address requests are sent to.
func (c *Client) Host() string {
	return c.host
}

func (c *Client) QueryAllUserVotes(ctx context.Context) ([]Vote, error) {
	const op errors.Op = "politeia.QueryAllUserVotes"

	var result Votes
	err := c.makeRequest(ctx, http.MethodGet, userVotesPath, nil, &result)
	if err != nil {
		return nil, errors.E(op, err)
	}

	return result.Votes, nil
}

func (c *Client) GetProposal(ctx context.Context, id ProposalID) ([]ProposalSnapshot, error) {
	const op errors.Op = "politeia.GetProposal"

	if id == "" {
		return nil, errors.E(op, errors.Invalid, "proposal id cannot be empty")
	}

	var result Proposals
	err := c.makeRequest(ctx, http.MethodGet, fmt.Sprintf(proposalPath, id), nil, &result)
	if err != nil {
		return nil, errors.E(op, err)
	}

	return result.Proposals, nil
}

func (c *Client) CheckClaimRewards(ctx context.Context, id ProposalID) (*ClaimResult, error) {
	const op errors.Op = "politeia.CheckClaimRewards"

	if id == "" {
		return nil, errors.E(op, errors.Invalid, "proposal id cannot be empty")
	}

	var result ClaimResult
	err := c.makeRequest(ctx, http.MethodPost, fmt.Sprintf(claimRewardsPath, id), []byte("{}"), &result)
	if err != nil {
		return nil, errors.E(op, err)
	}

	return &result, nil
}

func (c *Client) makeRequest(ctx context.Context, method, path string, body []byte, dest interface{}) error {
	if method == http.MethodPost {
		if err := c.ensureCSRFToken(ctx); err != nil {
			return err
		}
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+apiPath+path, bodyReader)
	if err != nil {
		return fmt.Errorf("error creating http request: %s", err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := RequestID(ctx); requestID != "" {
		req.Header.Set(requestIDHeader, requestID)
	}

	c.mu.Lock()
	if method == http.MethodPost {
		req.Header.Add(www.CsrfToken, c.csrfToken)
		for _, cookie := range c.cookies {
			req.AddCookie(cookie)
		}
	}
	c.mu.Unlock()

	log.Tracef("%s %s", method, req.URL)

	r, err := c.httpClient.Do(req)
	if err != nil {
		return errors.E(errors.IO, err)
	}
	defer r.Body.Close()

	responseBody, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.E(errors.IO, err)
	}

	if r.StatusCode != http.StatusOK {
		return c.handleError(r.StatusCode, responseBody)
	}

	err = json.Unmarshal(responseBody, dest)
	if err != nil {
		return errors.E(errors.Encoding, fmt.Sprintf("error unmarshaling response: %s", err.Error()))
	}

	return nil
}

func (c *Client) handleError(statusCode int, responseBody []byte) error {
	switch statusCode {
	case http.StatusNotFound:
		return errors.E(errors.NotExist, "resource not found")
	case http.StatusInternalServerError:
		return errors.E(errors.IO, "internal server error")
	case http.StatusForbidden:
		return errors.E(errors.Invalid, string(responseBody))
	case http.StatusUnauthorized:
		var errResp Err
		if err := json.Unmarshal(responseBody, &errResp); err != nil {
			return errors.E(errors.Encoding, err)
		}
		return errors.E(errors.Invalid, fmt.Sprintf("unauthorized: %s", ErrorStatus[errResp.Code]))
	case http.StatusBadRequest:
		var errResp Err
		if err := json.Unmarshal(responseBody, &errResp); err != nil {
			return errors.E(errors.Encoding, err)
		}
		return errors.E(errors.Invalid, fmt.Sprintf("bad request: %s", ErrorStatus[errResp.Code]))
	}

	return errors.E(fmt.Sprintf("unknown error (http status %d)", statusCode))
}

// ensureCSRFToken fetches a new csrf token and session cookies when none is
// held or the held token has expired.
func (c *Client) ensureCSRFToken(ctx context.Context) error {
	c.mu.Lock()
	valid := c.csrfToken != "" && time.Now().Before(c.csrfTokenExpiresAt)
	c.mu.Unlock()
	if valid {
		return nil
	}

	_, err := c.version(ctx)
	return err
}

func (c *Client) version(ctx context.Context) (*ServerVersion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+apiPath+versionPath, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating version request: %s", err.Error())
	}

	r, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.E(errors.IO, fmt.Sprintf("error fetching politeia server version: %s", err.Error()))
	}
	defer r.Body.Close()

	responseBody := util.ConvertBodyToByteArray(r.Body, false)
	if r.StatusCode != http.StatusOK {
		return nil, c.handleError(r.StatusCode, responseBody)
	}

	var versionResponse ServerVersion
	err = json.Unmarshal(responseBody, &versionResponse)
	if err != nil {
		return nil, errors.E(errors.Encoding, fmt.Sprintf("error unmarshaling version response: %s", err.Error()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cookies = r.Cookies()
	if newCsrfToken := r.Header.Get(www.CsrfToken); newCsrfToken != "" {
		c.csrfToken = newCsrfToken
	}
	c.csrfTokenExpiresAt = time.Now().Add(csrfTokenLifetime)

	return &versionResponse, nil
}
