// Package registry talks to the private npm registry on the operator's
// behalf: it verifies the bearer token, performs the authenticated global
// install of the proprietary CLI and manages the credential files involved.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
	"github.com/convoy-hq/convoy-prereqs/internal/manifest"
)

// ErrTokenRequired is returned for an empty token; the prompting flow
// re-prompts on it instead of exiting.
var ErrTokenRequired = errors.New("registry token required")

// ErrVerificationFailed covers both transport and authorization failures.
// The two are deliberately indistinguishable at this level; the log lines
// carry the difference.
var ErrVerificationFailed = errors.New("registry token verification failed")

// Client performs authenticated calls against the source-hosting platform.
type Client struct {
	APIBase     string
	Org         string
	PackageName string // unscoped, e.g. "convoy-cli"

	httpClient *http.Client
}

// NewClient builds a Client from the product manifest with a bounded request
// timeout.
func NewClient(m manifest.Manifest) *Client {
	return &Client{
		APIBase:     strings.TrimSuffix(m.Product.APIBase, "/"),
		Org:         m.Product.Org,
		PackageName: m.Product.PackageShortName(),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// VerifyToken checks the bearer token in two sequential steps: the identity
// endpoint must answer with a body containing a login field, and the org's
// npm package listing must contain the proprietary package name. Both checks
// are substring matches on the raw body; the package check can in principle
// false-positive on another package sharing the substring, which is accepted
// behavior. The token itself is never logged.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrTokenRequired
	}

	body, err := c.get(ctx, "/user", token)
	if err != nil {
		logger.Error("identity check unreachable: %v\n", err)
		return ErrVerificationFailed
	}
	if !strings.Contains(body, `"login"`) {
		logger.Error("identity check rejected the token\n")
		return ErrVerificationFailed
	}
	logger.Debug("identity check passed\n")

	listing := fmt.Sprintf("/orgs/%s/packages?package_type=npm", url.PathEscape(c.Org))
	body, err = c.get(ctx, listing, token)
	if err != nil {
		logger.Error("package access check unreachable: %v\n", err)
		return ErrVerificationFailed
	}
	if !strings.Contains(body, c.PackageName) {
		logger.Error("token has no read access to %s packages in %s\n", c.PackageName, c.Org)
		return ErrVerificationFailed
	}
	logger.Debug("package access check passed\n")
	return nil
}

// get performs one authenticated GET and returns the body regardless of
// status code; the substring checks decide success. Only transport failures
// surface as errors.
func (c *Client) get(ctx context.Context, path, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBase+path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debug("close response body: %v\n", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	logger.Debug("GET %s -> %d (%d bytes)\n", path, resp.StatusCode, len(body))
	return string(body), nil
}
