package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type eveCharacter struct {
	CharacterID   int64  `json:"CharacterID"`
	CharacterName string `json:"CharacterName"`
}

// EVEOnline returns the provider record for EVE Online,
// https://developers.eveonline.com/ .
func EVEOnline() Provider {
	return Provider{
		Name:             "eve_online",
		Description:      "EVE Online",
		AuthorizationURL: "https://login.eveonline.com/oauth/authorize",
		TokenURL:         "https://login.eveonline.com/oauth/token",
		RevocationURL:    "https://login.eveonline.com/oauth/revoke",
		ResourceURL:      "https://esi.evetech.net/verify/",
		DefaultScopes:    []string{"publicData"},
		HTTPBasicAuth:    true,
		ExtractIdentity: func(body []byte) (Identity, error) {
			var c eveCharacter
			if err := json.Unmarshal(body, &c); err != nil {
				return Identity{}, fmt.Errorf("eve online verify response: %w", err)
			}
			if c.CharacterID == 0 {
				return Identity{}, fmt.Errorf("eve online verify response missing CharacterID")
			}
			return Identity{
				Key: strconv.FormatInt(c.CharacterID, 10),
				Tag: c.CharacterName,
			}, nil
		},
	}
}
