package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/loaves/pkg/adapters/memory"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/persistence/middleware"
	"github.com/aretw0/loaves/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretSession(id string) *domain.Session {
	sess := domain.NewSession(id, time.Now())
	sess.ExpiresAt = time.Now().Add(time.Hour)
	sess.Cart.Add(domain.LineItem{ID: "secret-loaf", Title: "My Secret Sauce", Price: 7})
	return sess
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "test-session"
	original := secretSession(sessionID)

	// 1. Save
	require.NoError(t, secureStore.Save(ctx, sessionID, original))

	// 2. Verify Underlying Store directly (Should be encrypted)
	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Cart.Len(), "cart must not be stored in the clear")
	assert.NotEmpty(t, stored.Sealed)
	assert.False(t, strings.Contains(string(stored.Sealed), "Secret"))
	assert.Equal(t, original.ExpiresAt, stored.ExpiresAt, "expiry stays visible to the backend")

	// 3. Load via Middleware (Should be decrypted)
	loaded, err := secureStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "My Secret Sauce", loaded.Cart.Items[0].Title)
	assert.Empty(t, loaded.Sealed)
	assert.Equal(t, sessionID, loaded.ID)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSessionStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	sessionID := "rotation-session"

	// 1. Save with OLD key
	require.NoError(t, secureStoreOld.Save(ctx, sessionID, secretSession(sessionID)))

	// 2. Load with NEW key (Active) + OLD key (Fallback)
	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, sessionID)
	require.NoError(t, err, "Load with rotated key failed")
	assert.Equal(t, 1, loaded.Cart.Quantity("secret-loaf"))

	// 3. Save again (now sealed with NEW key)
	loaded.Cart.Add(domain.LineItem{ID: "secret-loaf"})
	require.NoError(t, secureStoreNew.Save(ctx, sessionID, loaded))

	// 4. Verify we CANNOT load with just OLD key anymore
	_, err = secureStoreOld.Load(ctx, sessionID)
	assert.Error(t, err, "Expected failure when loading new-key encryption with old-key middleware")
}

func TestEncryptionMiddleware_PlainSessionRejected(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlyingStore.Save(ctx, "plain", secretSession("plain")))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(ctx, "plain")
	assert.ErrorContains(t, err, "envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	hexKey := strings.Repeat("ab", 32)
	k, err := middleware.ParseKey(hexKey)
	require.NoError(t, err)
	assert.Len(t, k, 32)
	assert.Equal(t, byte(0xab), k[0])

	k, err = middleware.ParseKey("correct horse battery staple")
	require.NoError(t, err)
	assert.Len(t, k, 32)

	again, _ := middleware.ParseKey("correct horse battery staple")
	assert.Equal(t, k, again, "passphrases derive deterministically")

	_, err = middleware.ParseKey("")
	assert.Error(t, err)
}
