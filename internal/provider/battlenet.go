package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type battleNetAccount struct {
	ID        int64  `json:"id"`
	BattleTag string `json:"battletag"`
}

// BattleNet returns the provider record for Battle.net,
// https://develop.battle.net/ . Battle.net expects client credentials in
// an HTTP Basic header on token requests.
func BattleNet() Provider {
	return Provider{
		Name:             "battle_net",
		Description:      "Battle.net",
		AuthorizationURL: "https://us.battle.net/oauth/authorize",
		TokenURL:         "https://us.battle.net/oauth/token",
		VerificationURL:  "https://us.battle.net/oauth/check_token",
		ResourceURL:      "https://us.api.battle.net/account/user",
		DefaultScopes:    []string{"wow.profile", "sc2.profile"},
		HTTPBasicAuth:    true,
		ExtractIdentity: func(body []byte) (Identity, error) {
			var a battleNetAccount
			if err := json.Unmarshal(body, &a); err != nil {
				return Identity{}, fmt.Errorf("battle.net account response: %w", err)
			}
			if a.ID == 0 {
				return Identity{}, fmt.Errorf("battle.net account response missing id")
			}
			return Identity{
				Key: strconv.FormatInt(a.ID, 10),
				Tag: a.BattleTag,
			}, nil
		},
	}
}
