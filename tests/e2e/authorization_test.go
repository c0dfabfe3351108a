//go:build e2e

package e2e_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	authpkg "github.com/openlibraryenvironment/dcb-service-sub001/internal/auth"
)

// TestE2E_Authorization verifies bearer token and role enforcement on every
// protected route.
func TestE2E_Authorization(t *testing.T) {
	ts := setupTestServer(t)
	id := uuid.NewString()

	endpoints := []struct {
		method    string
		path      string
		adminOnly bool
	}{
		{http.MethodPost, "/patrons/requests/place", false},
		{http.MethodGet, "/patrons/requests/" + id, false},
		{http.MethodGet, "/patrons/requests/" + id + "/audits", false},
		{http.MethodGet, "/patrons/requests/" + id + "/supplier-requests", false},
		{http.MethodPost, "/patrons/requests/" + id + "/update", false},
		{http.MethodPost, "/patrons/requests/" + id + "/rollback", true},
		{http.MethodPost, "/tracking/run", true},
		{http.MethodGet, "/admin/requests/stats", true},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			status, _ := ts.restRequest(t, ep.method, ep.path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, status, "anonymous")

			status, _ = ts.restRequest(t, ep.method, ep.path, nil, "not-a-token")
			assert.Equal(t, http.StatusUnauthorized, status, "garbage token")

			if ep.adminOnly {
				status, _ = ts.restRequest(t, ep.method, ep.path, nil, ts.token(t, authpkg.RoleOperator))
				assert.Equal(t, http.StatusForbidden, status, "operator")
			}
		})
	}
}
