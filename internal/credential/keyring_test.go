package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/kaneo-automation/internal/model"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))
	in := model.Integration{ID: "abc"}

	_, err := s.Get(in.WebhookSecretKey())
	assert.ErrorIs(t, err, ErrNotFound)

	missing, err := s.Lookup(in.TokenKey())
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, s.Set(in.WebhookSecretKey(), "s3cret"))
	got, err := s.Get("webhook-abc")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, s.Delete(in.WebhookSecretKey()))
	require.NoError(t, s.Delete(in.WebhookSecretKey()))
	_, err = s.Get(in.WebhookSecretKey())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_FileBackend(t *testing.T) {
	dir := t.TempDir()
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      serviceName,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt("test"),
	})
	require.NoError(t, err)

	s := NewStore(ring)
	require.NoError(t, s.Set("token-1", "ghp_x"))
	got, err := s.Get("token-1")
	require.NoError(t, err)
	assert.Equal(t, "ghp_x", got)
}
