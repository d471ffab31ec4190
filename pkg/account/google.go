package account

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dmitrymomot/trialbill/pkg/logger"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleConfig holds configuration for Google sign-in.
type GoogleConfig struct {
	ClientID     string        `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string        `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string        `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes       []string      `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	StateTTL     time.Duration `env:"GOOGLE_OAUTH_STATE_TTL" envDefault:"10m"`
	VerifiedOnly bool          `env:"GOOGLE_OAUTH_VERIFIED_ONLY" envDefault:"true"`

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// Enabled reports whether client credentials are present.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type googleProvider struct {
	conf         *oauth2.Config
	userInfoURL  string
	stateTTL     time.Duration
	verifiedOnly bool
	httpClient   *http.Client
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func newGoogleProvider(cfg GoogleConfig) *googleProvider {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &googleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL:  userInfoURL,
		stateTTL:     ttl,
		verifiedOnly: cfg.VerifiedOnly,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *service) GoogleAuthURL(ctx context.Context) (string, error) {
	if s.google == nil {
		return "", ErrGoogleDisabled
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	if err := s.states.StoreState(ctx, state, s.now().Add(s.google.stateTTL)); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return s.google.conf.AuthCodeURL(state), nil
}

func (s *service) GoogleCallback(ctx context.Context, code, state string) (*User, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}

	// One-time use: a replayed callback fails here.
	if err := s.states.ConsumeState(ctx, state); err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to validate state: %w", err)
	}

	tok, err := s.google.conf.Exchange(ctx, code)
	if err != nil {
		return nil, ErrInvalidCode
	}

	profile, err := s.google.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch google user: %w", err)
	}
	if profile.ID == "" {
		return nil, ErrProviderProfile
	}
	if profile.Email == "" {
		return nil, ErrNoEmail
	}
	profile.Email = NormalizeEmail(profile.Email)

	if s.google.verifiedOnly && !profile.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	user, err := s.store.GetByGoogleID(ctx, profile.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check google link: %w", err)
	}

	// An address registered with a password is never taken over by sign-in.
	_, err = s.store.GetByEmail(ctx, profile.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	name := profile.Name
	if name == "" {
		name, _, _ = strings.Cut(profile.Email, "@")
	}
	now := s.now().UTC()
	user = &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     profile.Email,
		GoogleID:  profile.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed up with google",
		logger.UserID(user.ID),
		slog.String("provider", "google"),
		logger.Component("account"),
	)
	s.runAfterCreate(ctx, user)

	return user, nil
}

func (p *googleProvider) fetchUser(ctx context.Context, accessToken string) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}

	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
