package auth

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, duration time.Duration) *TokenService {
	t.Helper()

	key := make([]byte, keyLength)
	_, err := rand.Read(key)
	require.NoError(t, err)

	svc, err := NewTokenService(key, duration)
	require.NoError(t, err)
	return svc
}

func TestIssueAndVerifyDeviceToken(t *testing.T) {
	svc := newTestService(t, time.Hour)

	token, err := svc.IssueDeviceToken("device-abc", "reader@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyDeviceToken(token)
	require.NoError(t, err)
	assert.Equal(t, "device-abc", claims.DeviceID)
	assert.Equal(t, "reader@example.com", claims.Email)
}

func TestVerifyDeviceToken_Expired(t *testing.T) {
	svc := newTestService(t, -time.Minute)

	token, err := svc.IssueDeviceToken("device-abc", "reader@example.com")
	require.NoError(t, err)

	_, err = svc.VerifyDeviceToken(token)
	assert.Error(t, err)
}

func TestVerifyDeviceToken_WrongKey(t *testing.T) {
	issuer := newTestService(t, time.Hour)
	verifier := newTestService(t, time.Hour)

	token, err := issuer.IssueDeviceToken("device-abc", "reader@example.com")
	require.NoError(t, err)

	_, err = verifier.VerifyDeviceToken(token)
	assert.Error(t, err)
}

func TestVerifyDeviceToken_Garbage(t *testing.T) {
	svc := newTestService(t, time.Hour)

	_, err := svc.VerifyDeviceToken("not-a-token")
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	// Second load returns the same key.
	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "device.key"), []byte("short"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
