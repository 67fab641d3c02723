// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package jiraint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/l3montree-dev/issuesync/integrations/commonint"
	"github.com/l3montree-dev/issuesync/shared"
	"golang.org/x/oauth2"
)

var (
	atlassianAuthURL  = "https://auth.atlassian.com"
	atlassianAPIURL   = "https://api.atlassian.com"
	accessibleResPath = "/oauth/token/accessible-resources"
)

// resolved cloud resources per access token
var resourceCache = expirable.NewLRU[string, accessibleResource](512, nil, 30*time.Minute)

// OAuthConfig returns the client configuration of the Atlassian 3LO app.
// It returns nil if the client is not configured.
func OAuthConfig() *oauth2.Config {
	clientID := os.Getenv("JIRA_CLIENT_ID")
	clientSecret := os.Getenv("JIRA_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  os.Getenv("JIRA_REDIRECT_URI"),
		Scopes:       []string{"read:jira-work", "write:jira-work", "read:jira-user", "offline_access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   atlassianAuthURL + "/authorize",
			TokenURL:  atlassianAuthURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// discoverResource finds the cloud site the token grants access to. If a site url is
// configured, the matching resource wins, otherwise the first one.
func discoverResource(ctx context.Context, exec *commonint.RequestExecutor, accessToken, siteURL string) (accessibleResource, error) {
	key := tokenCacheKey(accessToken + "|" + siteURL)
	if res, ok := resourceCache.Get(key); ok {
		return res, nil
	}

	var resources []accessibleResource
	if err := exec.DoJSON(ctx, "accessible-resources", commonint.Request{
		Method: http.MethodGet,
		URL:    atlassianAPIURL + accessibleResPath,
	}, &resources); err != nil {
		return accessibleResource{}, shared.NewAuthenticationError(shared.ProviderJira, "could not discover accessible resources", err)
	}
	if len(resources) == 0 {
		return accessibleResource{}, shared.NewAuthenticationError(shared.ProviderJira, "token grants access to no jira site", nil)
	}

	res := resources[0]
	if siteURL != "" {
		for _, r := range resources {
			if strings.TrimSuffix(r.URL, "/") == strings.TrimSuffix(siteURL, "/") {
				res = r
				break
			}
		}
	}
	resourceCache.Add(key, res)
	return res, nil
}
