package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/honeynil/BooReviewService/internal/models"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const DefaultUserInfoURL = "https://www.googleapis.com/userinfo/v2/me"

type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint and UserInfoURL default to Google's production endpoints.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// Client performs the authorization-code exchange with Google and fetches
// the caller's profile.
type Client struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewClient(opts Options) *Client {
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	userInfoURL := opts.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	return &Client{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoint,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: userInfoURL,
	}
}

func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (c *Client) Exchange(ctx context.Context, code string) (*models.GoogleProfile, error) {
	tracer := otel.Tracer("google-client")
	ctx, span := tracer.Start(ctx, "Exchange")
	defer span.End()

	if code == "" {
		span.SetStatus(codes.Error, "empty code")
		return nil, fmt.Errorf("%w: authorization code is required", pkgerrors.ErrIdentityExchange)
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "code exchange failed")
		slog.Error("google code exchange failed", "error", err)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrIdentityExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrIdentityExchange, err)
	}
	resp, err := c.config.Client(ctx, token).Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "userinfo request failed")
		slog.Error("google userinfo request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrIdentityExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		span.SetStatus(codes.Error, "userinfo rejected")
		slog.Error("google userinfo rejected", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: userinfo status %d", pkgerrors.ErrIdentityExchange, resp.StatusCode)
	}

	var profile models.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: decode userinfo: %v", pkgerrors.ErrIdentityExchange, err)
	}
	if profile.ID == "" {
		span.SetStatus(codes.Error, "profile without id")
		return nil, fmt.Errorf("%w: userinfo response has no id", pkgerrors.ErrIdentityExchange)
	}

	slog.Info("google profile fetched", "google_id", profile.ID)
	return &profile, nil
}
