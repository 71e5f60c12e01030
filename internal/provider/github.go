package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// GitHub returns the provider record for GitHub, https://github.com/ .
// GitHub reports token-endpoint errors with HTTP 200, which the response
// parser already tolerates.
func GitHub() Provider {
	return Provider{
		Name:             "github",
		Description:      "GitHub",
		AuthorizationURL: "https://github.com/login/oauth/authorize",
		TokenURL:         "https://github.com/login/oauth/access_token",
		ResourceURL:      "https://api.github.com/user",
		DefaultScopes:    []string{"read:user"},
		HTTPBasicAuth:    false,
		ExtractIdentity: func(body []byte) (Identity, error) {
			var u githubUser
			if err := json.Unmarshal(body, &u); err != nil {
				return Identity{}, fmt.Errorf("github user response: %w", err)
			}
			if u.ID == 0 {
				return Identity{}, fmt.Errorf("github user response missing id")
			}
			return Identity{
				Key: strconv.FormatInt(u.ID, 10),
				Tag: u.Login,
			}, nil
		},
	}
}
