package ssrf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateWebhookURLAcceptsPublicHTTPS(t *testing.T) {
	for _, raw := range []string{
		"https://example.com",
		"https://hooks.example.com/cb?x=1",
		"https://8.8.8.8/notify",
		"https://[2001:db8::1]/cb",
	} {
		assert.NoError(t, ValidateWebhookURL(raw), raw)
	}
}

func TestValidateWebhookURLRejectsNonHTTPS(t *testing.T) {
	err := ValidateWebhookURL("http://example.com")
	assert.ErrorContains(t, err, "https")

	err = ValidateWebhookURL("ftp://example.com")
	assert.ErrorContains(t, err, "https")
}

func TestValidateWebhookURLRejectsPrivateV4(t *testing.T) {
	cases := map[string]string{
		"https://10.1.2.3/cb":          "blocked range",
		"https://172.16.0.1/cb":        "blocked range",
		"https://192.168.1.1/cb":       "blocked range",
		"https://127.0.0.1/cb":         "blocked range",
		"https://169.254.169.254/meta": "blocked range", // AWS metadata
		"https://0.0.0.0/cb":           "unspecified",
		"https://255.255.255.255/cb":   "broadcast",
		"https://224.0.0.1/cb":         "multicast",
	}

	for raw, fragment := range cases {
		err := ValidateWebhookURL(raw)
		assert.ErrorContains(t, err, fragment, raw)
	}
}

func TestValidateWebhookURLRejectsBlockedV6(t *testing.T) {
	cases := map[string]string{
		"https://[::1]/cb":      "loopback",
		"https://[::]/cb":       "unspecified",
		"https://[fc00::1]/cb":  "unique-local",
		"https://[fd12::34]/cb": "unique-local",
		"https://[fe80::1]/cb":  "link-local",
		"https://[ff02::1]/cb":  "multicast",
	}

	for raw, fragment := range cases {
		err := ValidateWebhookURL(raw)
		assert.ErrorContains(t, err, fragment, raw)
	}
}

func TestValidateWebhookURLRejectsLocalHostnames(t *testing.T) {
	cases := []string{
		"https://localhost/cb",
		"https://LOCALHOST/cb",
		"https://app.localhost/cb",
		"https://localhost.localdomain/cb",
		"https://printer.local/cb",
		"https://db.prod.internal/cb",
	}

	for _, raw := range cases {
		assert.Error(t, ValidateWebhookURL(raw), raw)
	}
}
