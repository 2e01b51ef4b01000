// Package permissions defines the admin permission catalog and helpers for
// checking an admin's grants against route keys.
package permissions

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

// Definition describes one grantable permission.
type Definition struct {
	Key   string `json:"key"`
	Group string `json:"group"`
	Label string `json:"label"`
}

// Key builds the permission key for a method and registered route path.
func Key(method, path string) string {
	return strings.ToUpper(strings.TrimSpace(method)) + " " + strings.TrimSpace(path)
}

// Definitions lists every admin permission, grouped by feature area.
func Definitions() []Definition {
	return []Definition{
		{Key: "GET /v0/admin/pricing-rules", Group: "pricing_rules", Label: "List pricing rules"},
		{Key: "GET /v0/admin/pricing-rules/:id", Group: "pricing_rules", Label: "View pricing rule"},
		{Key: "POST /v0/admin/pricing-rules", Group: "pricing_rules", Label: "Create pricing rule"},
		{Key: "PUT /v0/admin/pricing-rules/:id", Group: "pricing_rules", Label: "Update pricing rule"},
		{Key: "DELETE /v0/admin/pricing-rules/:id", Group: "pricing_rules", Label: "Delete pricing rule"},
		{Key: "PUT /v0/admin/pricing-rules/:id/enabled", Group: "pricing_rules", Label: "Enable or disable pricing rule"},

		{Key: "GET /v0/admin/services", Group: "services", Label: "List services"},
		{Key: "GET /v0/admin/services/:id", Group: "services", Label: "View service"},
		{Key: "POST /v0/admin/services", Group: "services", Label: "Create service"},
		{Key: "PUT /v0/admin/services/:id", Group: "services", Label: "Update service"},
		{Key: "DELETE /v0/admin/services/:id", Group: "services", Label: "Delete service"},

		{Key: "GET /v0/admin/clients", Group: "clients", Label: "List clients"},
		{Key: "GET /v0/admin/clients/:id", Group: "clients", Label: "View client"},
		{Key: "POST /v0/admin/clients", Group: "clients", Label: "Create client"},
		{Key: "PUT /v0/admin/clients/:id", Group: "clients", Label: "Update client"},
		{Key: "DELETE /v0/admin/clients/:id", Group: "clients", Label: "Delete client"},

		{Key: "POST /v0/admin/quotes", Group: "quotes", Label: "Calculate quote"},
		{Key: "POST /v0/admin/quotes/bundle", Group: "quotes", Label: "Calculate bundle quote"},
		{Key: "GET /v0/admin/recommendations", Group: "quotes", Label: "View pricing recommendations"},

		{Key: "GET /v0/admin/quote-logs", Group: "quote_logs", Label: "List quote logs"},

		{Key: "GET /v0/admin/settings", Group: "settings", Label: "View settings"},
		{Key: "PUT /v0/admin/settings", Group: "settings", Label: "Update settings"},

		{Key: "GET /v0/admin/admins", Group: "admins", Label: "List admins"},
		{Key: "GET /v0/admin/admins/:id", Group: "admins", Label: "View admin"},
		{Key: "POST /v0/admin/admins", Group: "admins", Label: "Create admin"},
		{Key: "PUT /v0/admin/admins/:id", Group: "admins", Label: "Update admin"},
		{Key: "DELETE /v0/admin/admins/:id", Group: "admins", Label: "Delete admin"},
		{Key: "PUT /v0/admin/admins/:id/active", Group: "admins", Label: "Activate or deactivate admin"},
		{Key: "PUT /v0/admin/admins/:id/password", Group: "admins", Label: "Change admin password"},
		{Key: "GET /v0/admin/permissions", Group: "admins", Label: "List permission definitions"},
	}
}

// DefinitionMap returns the permission catalog keyed by permission key.
func DefinitionMap() map[string]Definition {
	defs := Definitions()
	out := make(map[string]Definition, len(defs))
	for _, def := range defs {
		out[def.Key] = def
	}
	return out
}

// ParsePermissions decodes the JSON permission list stored on an admin row.
func ParsePermissions(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var keys []string
	if errDecode := json.Unmarshal(raw, &keys); errDecode != nil {
		return nil
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out = append(out, key)
	}
	return out
}

// HasPermission reports whether the grant list contains the key.
func HasPermission(granted []string, key string) bool {
	for _, grant := range granted {
		if grant == key {
			return true
		}
	}
	return false
}

// NormalizePermissions trims and deduplicates a permission list while
// preserving order.
func NormalizePermissions(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// ValidatePermissions rejects keys outside the catalog.
func ValidatePermissions(keys []string) error {
	catalog := DefinitionMap()
	for _, key := range keys {
		if _, ok := catalog[key]; !ok {
			return fmt.Errorf("permissions: unknown permission %q", key)
		}
	}
	return nil
}

// MarshalPermissions encodes a permission list for the admins table.
func MarshalPermissions(keys []string) ([]byte, error) {
	if keys == nil {
		keys = []string{}
	}
	return json.Marshal(keys)
}
