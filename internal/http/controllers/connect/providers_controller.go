package connect

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/guildmaster/internal/provider"
)

// ProvidersController exposes the provider catalog.
type ProvidersController struct {
	registry *provider.Registry
}

// NewProvidersController creates the controller.
func NewProvidersController(reg *provider.Registry) *ProvidersController {
	return &ProvidersController{registry: reg}
}

type providerItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List handles GET /oauth2/providers
func (c *ProvidersController) List(w http.ResponseWriter, r *http.Request) {
	choices := c.registry.Choices()
	items := make([]providerItem, 0, len(choices))
	for _, ch := range choices {
		items = append(items, providerItem{Name: ch.Name, Description: ch.Description})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"providers": items})
}
