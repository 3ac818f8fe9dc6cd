// AngelaMos | 2026
// roles.go

package identity

import (
	"slices"
	"strings"
)

var deniedRoles = map[string]struct{}{
	"offline_access":       {},
	"uma_authorization":    {},
	"default-roles-master": {},
}

// ExtractRoles flattens realm roles, the client's resource roles and group
// names into a sorted set, minus the provider's built-in roles.
func ExtractRoles(claims *Claims, clientID, realm string) []string {
	if claims == nil {
		return []string{}
	}

	seen := make(map[string]struct{})
	add := func(role string) {
		role = strings.TrimPrefix(strings.TrimSpace(role), "/")
		if role == "" {
			return
		}
		if _, denied := deniedRoles[role]; denied {
			return
		}
		if realm != "" && role == "default-roles-"+realm {
			return
		}
		seen[role] = struct{}{}
	}

	for _, r := range claims.RealmAccess.Roles {
		add(r)
	}
	if res, ok := claims.ResourceAccess[clientID]; ok {
		for _, r := range res.Roles {
			add(r)
		}
	}
	for _, g := range claims.Groups {
		add(g)
	}

	roles := make([]string, 0, len(seen))
	for r := range seen {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}
