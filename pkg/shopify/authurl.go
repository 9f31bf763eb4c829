package shopify

import (
	"net/url"
	"strings"
)

const authorizePath = "/admin/oauth/authorize"

// scopeDelimiter joins requested scopes. Shopify documents a comma.
const scopeDelimiter = ","

// AuthURL builds the OAuth authorize URL a merchant is redirected to when
// installing the app.
func (c *Client) AuthURL(scopes []string, redirectURI string) (string, error) {
	cleaned := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return "", contractErr("at least one scope is required")
	}
	if strings.TrimSpace(redirectURI) == "" {
		return "", contractErr("redirect URI is required")
	}
	if c.cfg.Key == "" {
		return "", contractErr("api key is required to build an auth URL")
	}

	u := *c.cfg.BaseURL
	u.Path = authorizePath
	u.RawQuery = url.Values{
		"client_id":    {c.cfg.Key},
		"scope":        {strings.Join(cleaned, scopeDelimiter)},
		"redirect_uri": {redirectURI},
	}.Encode()

	return u.String(), nil
}

// AuthURLScope is AuthURL for a scope string that is already joined, such
// as "read_products,write_orders".
func (c *Client) AuthURLScope(scope, redirectURI string) (string, error) {
	if strings.TrimSpace(scope) == "" {
		return "", contractErr("scope is required")
	}
	return c.AuthURL([]string{scope}, redirectURI)
}
