package permissions

import (
	_ "embed"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

// Permission lists the roles allowed on one route pattern; Skip marks a public route.
type Permission struct {
	Roles  []Role `json:"roles"`
	Path   string `json:"path"`
	Method string `json:"method"`
	Skip   bool   `json:"skip"`
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`
}

func (r *PermissionData) FindPermissions(path, method string) Permission {
	idx := slices.IndexFunc(r.Endpoints, func(rp Permission) bool {
		return rp.Path == path && rp.Method == method
	})

	if idx == -1 {
		return Permission{}
	}

	return r.Endpoints[idx]
}

// Match resolves a concrete request path against the route patterns. Literal segments win
// over {param} segments, so /v1/bookings/history is not read as /v1/bookings/{id}.
func (r *PermissionData) Match(path, method string) Permission {
	if exact := r.FindPermissions(path, method); exact.Path != "" {
		return exact
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	best, bestParams := Permission{}, -1

	for _, endpoint := range r.Endpoints {
		if endpoint.Method != method {
			continue
		}

		params, ok := matchSegments(strings.Split(strings.Trim(endpoint.Path, "/"), "/"), segments)
		if ok && (bestParams == -1 || params < bestParams) {
			best, bestParams = endpoint, params
		}
	}

	return best
}

func matchSegments(pattern, segments []string) (int, bool) {
	wildcard := len(pattern) > 0 && pattern[len(pattern)-1] == "*"
	if wildcard {
		pattern = pattern[:len(pattern)-1]
	}

	if len(segments) < len(pattern) || (!wildcard && len(segments) != len(pattern)) {
		return 0, false
	}

	params := 0
	if wildcard {
		params = len(segments)
	}

	for i, part := range pattern {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			if segments[i] == "" {
				return 0, false
			}

			params++

			continue
		}

		if part != segments[i] {
			return 0, false
		}
	}

	return params, true
}

// Allows reports whether role may call the route; an empty role list admits any authenticated caller.
func (p Permission) Allows(role Role) bool {
	return len(p.Roles) == 0 || slices.Contains(p.Roles, role)
}

func Get() *PermissionData {
	var permissions PermissionData

	err := json.Unmarshal(permissionsData, &permissions)
	if err != nil {
		log.Err(err).Msg("Failed to decode embedded permissions")

		return nil
	}

	log.Info().Int("endpoints", len(permissions.Endpoints)).Msg("Successfully loaded embedded permissions")

	return &permissions
}
