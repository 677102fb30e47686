package totalsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/totalapp/tenantfiles/internal/utils"
)

const (
	authLogin   = "/auth/login"
	authRefresh = "/auth/refresh-token"
)

// Login exchanges the account password for a token pair
func Login(ctx context.Context, serverURL string, password string) (*AuthResponse, error) {
	serverURL, err := utils.NormalizeURL(serverURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoServerURL, err)
	}

	var result AuthResponse
	res, err := HTTPClient.R().
		SetContext(ctx).
		SetBody(&LoginRequest{Password: password}).
		SetSuccessResult(&result).
		Post(serverURL + authLogin)

	if err := handleAPIError(res, err, "login"); err != nil {
		return nil, err
	}

	if result.Tokens.IDToken == "" {
		return nil, fmt.Errorf("sdk: login: server returned no id token")
	}

	return &result, nil
}

// RefreshTokens trades a refresh token for a fresh token pair
func RefreshTokens(ctx context.Context, serverURL string, refreshToken string) (*AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrNoRefreshToken
	}

	serverURL, err := utils.NormalizeURL(serverURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoServerURL, err)
	}

	var result AuthResponse
	res, err := HTTPClient.R().
		SetContext(ctx).
		SetBody(&RefreshTokenRequest{RefreshToken: refreshToken}).
		SetSuccessResult(&result).
		Post(serverURL + authRefresh)

	if err := handleAPIError(res, err, "refresh token"); err != nil {
		return nil, err
	}

	if result.Tokens.IDToken == "" {
		return nil, fmt.Errorf("sdk: refresh token: server returned no id token")
	}

	return &result, nil
}

// bearer returns the current id token, refreshing first when it is a JWT that
// has already expired.
func (c *Client) bearer(ctx context.Context) (string, error) {
	tokens := c.Tokens()
	if tokens.IDToken == "" && tokens.RefreshToken == "" {
		return "", nil
	}

	if tokens.IDToken != "" && !tokenExpired(tokens.IDToken, c.now(), tokenLeeway) {
		return tokens.IDToken, nil
	}

	if err := c.refresh(ctx, tokens.IDToken); err != nil {
		return "", err
	}
	return c.Tokens().IDToken, nil
}

// refresh runs at most one token refresh at a time. staleToken is the id token
// the caller saw rejected; if another caller already replaced it, no new
// refresh is issued. The shared refresh outlives the caller that started it,
// and the tokens are dropped only when the server rejects the refresh token.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	shared := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		current := c.Tokens()
		if current.IDToken != "" && current.IDToken != staleToken {
			return nil, nil
		}

		res, err := RefreshTokens(shared, c.baseURL, current.RefreshToken)
		if err != nil {
			if !refreshRejected(err) {
				return nil, err
			}
			c.clearTokens()
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}

		c.setTokens(res.Tokens)
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

// refreshRejected reports whether the refresh token itself is no longer
// usable, as opposed to the refresh call failing on the way.
func refreshRejected(err error) bool {
	if errors.Is(err, ErrNoRefreshToken) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

func (c *Client) setTokens(tokens Tokens) {
	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()

	c.log.Debug("tokens refreshed", "idToken", utils.MaskSecret(tokens.IDToken))
	if c.onTokensRefreshed != nil {
		c.onTokensRefreshed(tokens)
	}
}

func (c *Client) clearTokens() {
	c.mu.Lock()
	c.tokens = Tokens{}
	c.mu.Unlock()

	c.log.Warn("session expired, tokens cleared")
	if c.onTokensCleared != nil {
		c.onTokensCleared()
	}
}

// Tokens returns a snapshot of the tokens the client currently holds
func (c *Client) Tokens() Tokens {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}
