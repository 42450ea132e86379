package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
)

// hostedProvider talks to the hosted auth service over its REST API.
type hostedProvider struct {
	emitter

	baseURL    string
	apiKey     string
	serviceKey string
	client     *http.Client
	logger     core.Logger
}

var (
	_ auth.Provider         = (*hostedProvider)(nil)
	_ auth.PasswordResetter = (*hostedProvider)(nil)
)

func NewHostedProvider(conf *core.Config, logger core.Logger) *hostedProvider {
	return &hostedProvider{
		emitter:    newEmitter(),
		baseURL:    strings.TrimRight(conf.Auth.BaseURL, "/"),
		apiKey:     conf.Auth.APIKey,
		serviceKey: conf.Auth.ServiceKey,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type (
	sessionPayload struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}

	errorPayload struct {
		Message string `json:"msg"`
		Error   string `json:"error_description"`
	}
)

func (p *hostedProvider) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (auth.Session, error) {
	body := map[string]interface{}{"email": email, "password": password, "data": metadata}
	res, err := p.do(ctx, http.MethodPost, "/auth/v1/signup", "", body)
	if err != nil {
		return auth.Session{}, err
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusUnprocessableEntity:
		return auth.Session{}, auth.ErrEmailTaken
	case res.StatusCode >= http.StatusBadRequest:
		return auth.Session{}, p.remoteErr(res, "sign-up rejected")
	}
	return p.readSession(res.Body)
}

func (p *hostedProvider) SignInWithPassword(ctx context.Context, email, password string) (auth.Session, error) {
	body := map[string]interface{}{"email": email, "password": password}
	res, err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return auth.Session{}, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		// sanitize: never relay the provider's raw rejection to a login form
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return p.readSession(res.Body)
}

func (p *hostedProvider) SignOut(ctx context.Context, accessToken string) error {
	res, err := p.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return p.remoteErr(res, "sign-out rejected")
	}
	p.emit(auth.Event{Kind: auth.EventSignedOut})
	return nil
}

func (p *hostedProvider) Account(ctx context.Context, accessToken string) (auth.Account, error) {
	res, err := p.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return auth.Account{}, err
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return auth.Account{}, auth.ErrSessionExpired
	case res.StatusCode >= http.StatusBadRequest:
		return auth.Account{}, p.remoteErr(res, "session retrieval rejected")
	}

	var acct auth.Account
	if err := json.NewDecoder(res.Body).Decode(&acct); err != nil {
		return auth.Account{}, errors.Wrap(err, "decoding account")
	}
	return acct, nil
}

func (p *hostedProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	res, err := p.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]interface{}{"password": newPassword})
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return p.remoteErr(res, "password update rejected")
	}
	return nil
}

// ResetPassword sets a new password through the provider's admin API.
// Requires the service key; the account holder's session is not involved.
func (p *hostedProvider) ResetPassword(ctx context.Context, email, newPassword string) error {
	res, err := p.do(ctx, http.MethodGet, "/auth/v1/admin/users?email="+url.QueryEscape(email), p.serviceKey, nil)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return p.remoteErr(res, "admin user lookup rejected")
	}

	var payload struct {
		Users []auth.Account `json:"users"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return errors.Wrap(err, "decoding admin user list")
	}
	var id string
	for _, acct := range payload.Users {
		if strings.EqualFold(acct.Email, email) {
			id = acct.ID
			break
		}
	}
	if id == "" {
		return errors.Errorf("no account for %s", email)
	}

	res, err = p.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+id, p.serviceKey, map[string]interface{}{"password": newPassword})
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return p.remoteErr(res, "password reset rejected")
	}
	return nil
}

func (p *hostedProvider) do(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return nil, core.NewTransportError("auth provider "+method+" "+path, err)
	}
	return res, nil
}

func (p *hostedProvider) readSession(body io.Reader) (auth.Session, error) {
	var payload sessionPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return auth.Session{}, errors.Wrap(err, "decoding session")
	}
	return auth.Session{
		AccessToken: payload.AccessToken,
		Account:     auth.Account{ID: payload.User.ID, Email: payload.User.Email},
	}, nil
}

func (p *hostedProvider) remoteErr(res *http.Response, msg string) error {
	var payload errorPayload
	_ = json.NewDecoder(res.Body).Decode(&payload)
	detail := payload.Message
	if detail == "" {
		detail = payload.Error
	}
	if detail == "" {
		detail = res.Status
	}
	return errors.New(fmt.Sprintf("%s: %s", msg, detail))
}
