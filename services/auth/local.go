package authsvc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/tsedeniyafiseha/school-management-system/core"
	"github.com/tsedeniyafiseha/school-management-system/core/auth"
)

// localProvider keeps accounts in memory and signs its own access tokens.
// It backs DEV/TEST runs where no hosted auth service is available.
type localProvider struct {
	emitter

	secret []byte
	expiry time.Duration

	mu       sync.RWMutex
	accounts map[string]*localAccount // keyed by lowercased email
	byID     map[string]*localAccount
	revoked  map[string]struct{}
}

type localAccount struct {
	id       string
	email    string
	hash     []byte
	metadata map[string]interface{}
}

var (
	_ auth.Provider         = (*localProvider)(nil)
	_ auth.PasswordResetter = (*localProvider)(nil)
)

func NewLocalProvider(conf *core.Config) *localProvider {
	return &localProvider{
		emitter:  newEmitter(),
		secret:   conf.SecretKey,
		expiry:   conf.Auth.JWTExpirationDelta,
		accounts: make(map[string]*localAccount),
		byID:     make(map[string]*localAccount),
		revoked:  make(map[string]struct{}),
	}
}

func (p *localProvider) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (auth.Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[key]; ok {
		return auth.Session{}, auth.ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.Session{}, errors.Wrap(err, "hashing password")
	}
	acct := &localAccount{
		id:       uuid.New().String(),
		email:    key,
		hash:     hash,
		metadata: metadata,
	}
	p.accounts[key] = acct
	p.byID[acct.id] = acct

	return p.issueSession(acct)
}

func (p *localProvider) SignInWithPassword(ctx context.Context, email, password string) (auth.Session, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	p.mu.RLock()
	acct, ok := p.accounts[key]
	p.mu.RUnlock()
	if !ok {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return p.issueSession(acct)
}

func (p *localProvider) SignOut(ctx context.Context, accessToken string) error {
	if _, err := p.accountForToken(accessToken); err != nil {
		return err
	}
	p.mu.Lock()
	p.revoked[accessToken] = struct{}{}
	p.mu.Unlock()

	p.emit(auth.Event{Kind: auth.EventSignedOut})
	return nil
}

func (p *localProvider) Account(ctx context.Context, accessToken string) (auth.Account, error) {
	acct, err := p.accountForToken(accessToken)
	if err != nil {
		return auth.Account{}, err
	}
	return auth.Account{ID: acct.id, Email: acct.email}, nil
}

func (p *localProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	acct, err := p.accountForToken(accessToken)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	p.mu.Lock()
	acct.hash = hash
	p.mu.Unlock()
	return nil
}

func (p *localProvider) ResetPassword(ctx context.Context, email, newPassword string) error {
	key := strings.ToLower(strings.TrimSpace(email))

	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[key]
	if !ok {
		return errors.Errorf("no account for %s", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	acct.hash = hash
	return nil
}

func (p *localProvider) issueSession(acct *localAccount) (auth.Session, error) {
	now := time.Now()
	claims := jwt.StandardClaims{
		Subject:   acct.id,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(p.expiry).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return auth.Session{}, errors.Wrap(err, "signing token")
	}
	return auth.Session{
		AccessToken: token,
		Account:     auth.Account{ID: acct.id, Email: acct.email},
	}, nil
}

func (p *localProvider) accountForToken(accessToken string) (*localAccount, error) {
	p.mu.RLock()
	_, revoked := p.revoked[accessToken]
	p.mu.RUnlock()
	if revoked {
		return nil, auth.ErrSessionExpired
	}

	claims := new(jwt.StandardClaims)
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, auth.ErrSessionExpired
	}

	p.mu.RLock()
	acct, ok := p.byID[claims.Subject]
	p.mu.RUnlock()
	if !ok {
		return nil, auth.ErrSessionExpired
	}
	return acct, nil
}
