package testutil

import (
	"net/http"
	"testing"

	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/services"
)

// IssueToken signs a real session token with the test config, as the login endpoints would
func IssueToken(t *testing.T, cfg *config.Config, subject, role string) string {
	t.Helper()
	token, _, err := services.NewTokenService(cfg).Issue(subject, role)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

// CustomerToken issues a customer session token
func CustomerToken(t *testing.T, cfg *config.Config, customerID uint) string {
	t.Helper()
	return IssueToken(t, cfg, services.Subject(services.KindCustomer, customerID), "")
}

// AdminToken issues a back-office session token
func AdminToken(t *testing.T, cfg *config.Config, adminID uint, role string) string {
	t.Helper()
	return IssueToken(t, cfg, services.Subject(services.KindAdmin, adminID), role)
}

// Bearer returns the request headers carrying token
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// ApplyHeaders copies headers onto req
func ApplyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
