package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/billease/internal/pkg/config"
)

// maintenanceSet holds the routes switched off by app.maintenance.endpoints.
// An entry is either "/route" for every method or "METHOD /route".
type maintenanceSet map[string]struct{}

func newMaintenanceSet(cfg config.Config) maintenanceSet {
	set := maintenanceSet{}
	if cfg == nil {
		return set
	}

	for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
		method, route, found := strings.Cut(strings.TrimSpace(entry), " ")
		if !found {
			set[method] = struct{}{}
			continue
		}
		set[strings.ToUpper(method)+" "+strings.TrimSpace(route)] = struct{}{}
	}
	return set
}

func (s maintenanceSet) blocked(method, route string) bool {
	if _, ok := s[route]; ok {
		return true
	}
	_, ok := s[method+" "+route]
	return ok
}

func middlewareMaintenance(cfg config.Config) Middleware {
	set := newMaintenanceSet(cfg)

	return func(next http.Handler) http.Handler {
		if len(set) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if set.blocked(r.Method, matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
