// Package trustedsvc calls the elevated server-side functions that perform
// privileged account creation on behalf of a signed-in admin.
package trustedsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
	"github.com/tsedeniyafiseha/school-management-system/core/roster"
)

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  core.Logger
}

var _ roster.PrivilegedCreator = (*client)(nil)

func NewClient(conf *core.Config, logger core.Logger) *client {
	return &client{
		baseURL: strings.TrimRight(conf.Auth.FunctionsBaseURL, "/"),
		apiKey:  conf.Auth.APIKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type errorReply struct {
	Error string `json:"error"`
}

// CreateSchoolUser forwards the creation request to the create-school-user
// function, authenticated with the caller's own access token.
func (c *client) CreateSchoolUser(ctx context.Context, accessToken string, req roster.CreateSchoolUser) (roster.CreatedUser, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return roster.CreatedUser{}, errors.Wrap(err, "encoding request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-school-user", &buf)
	if err != nil {
		return roster.CreatedUser{}, errors.Wrap(err, "building request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	if c.apiKey != "" {
		httpReq.Header.Set("apikey", c.apiKey)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return roster.CreatedUser{}, core.NewTransportError("create-school-user", err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return roster.CreatedUser{}, auth.ErrSessionExpired
	case res.StatusCode == http.StatusConflict:
		return roster.CreatedUser{}, auth.ErrEmailTaken
	case res.StatusCode >= http.StatusBadRequest:
		var reply errorReply
		_ = json.NewDecoder(res.Body).Decode(&reply)
		if reply.Error == "" {
			reply.Error = res.Status
		}
		return roster.CreatedUser{}, errors.Errorf("create-school-user rejected: %s", reply.Error)
	}

	var created roster.CreatedUser
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return roster.CreatedUser{}, errors.Wrap(err, "decoding reply")
	}
	return created, nil
}
