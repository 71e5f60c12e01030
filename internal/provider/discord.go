package provider

import (
	"encoding/json"
	"fmt"
)

type discordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

// Discord returns the provider record for Discord, https://discord.com/ .
func Discord() Provider {
	return Provider{
		Name:             "discord",
		Description:      "Discord",
		AuthorizationURL: "https://discordapp.com/api/oauth2/authorize",
		TokenURL:         "https://discordapp.com/api/oauth2/token",
		RevocationURL:    "https://discordapp.com/api/oauth2/token/revoke",
		ResourceURL:      "https://discordapp.com/api/users/@me",
		DefaultScopes:    []string{"identify", "email"},
		HTTPBasicAuth:    false,
		ExtractIdentity: func(body []byte) (Identity, error) {
			var u discordUser
			if err := json.Unmarshal(body, &u); err != nil {
				return Identity{}, fmt.Errorf("discord user response: %w", err)
			}
			if u.ID == "" {
				return Identity{}, fmt.Errorf("discord user response missing id")
			}
			return Identity{
				Key: u.ID,
				Tag: fmt.Sprintf("%s#%s", u.Username, u.Discriminator),
			}, nil
		},
	}
}
