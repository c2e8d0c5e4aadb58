package integration

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/nhle/kaneo-automation/internal/model"
)

// Signature header names. GitHub prefixes the digest with "sha256=";
// Gitea sends the bare hex digest.
const (
	GitHubSignatureHeader = "X-Hub-Signature-256"
	GiteaSignatureHeader  = "X-Gitea-Signature"
)

// SignatureHeader returns the header carrying the payload HMAC for a provider.
func SignatureHeader(t model.IntegrationType) string {
	if t == model.IntegrationGitea {
		return GiteaSignatureHeader
	}
	return GitHubSignatureHeader
}

// VerifySignature checks an HMAC-SHA256 payload signature. An empty secret
// means the integration accepts unsigned deliveries.
func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" {
		return true
	}
	sig := strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if sig == "" {
		return false
	}
	return hmac.Equal([]byte(strings.ToLower(sig)), []byte(Sign(secret, payload)))
}

// Sign returns the bare hex HMAC-SHA256 of payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
