package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/loaves/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405.000000")
	now := time.Now().UTC()

	newSession := func(id string) *domain.Session {
		sess := domain.NewSession(id, now)
		sess.ExpiresAt = now.Add(time.Hour)
		return sess
	}

	t.Run("Save and Load", func(t *testing.T) {
		sess := newSession(sessionID)
		sess.Cart.Add(domain.LineItem{ID: "bread1", Title: "Sourdough", Price: domain.Price(5)})
		sess.Cart.Add(domain.LineItem{ID: "bread1"})
		sess.Cart.Add(domain.LineItem{ID: "roll", Price: domain.NaNPrice()})

		err := store.Save(ctx, sessionID, sess)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		require.Equal(t, 2, loaded.Cart.Len(), "line item order and identity survive persistence")
		assert.Equal(t, "bread1", loaded.Cart.Items[0].ID)
		assert.Equal(t, 2, loaded.Cart.Items[0].Quantity)
		assert.Equal(t, "Sourdough", loaded.Cart.Items[0].Title)
		assert.False(t, loaded.Cart.Items[1].Price.Valid(), "NaN price survives as NaN")
		assert.WithinDuration(t, sess.ExpiresAt, loaded.ExpiresAt, time.Second)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Cart.Clear()

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, again.Cart.Len(), "mutating a loaded session must not touch the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Load Expired", func(t *testing.T) {
		id := sessionID + "-expired"
		sess := newSession(id)
		sess.ExpiresAt = now.Add(-time.Minute)
		_ = store.Save(ctx, id, sess)
		defer func() { _ = store.Delete(ctx, id) }()

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, sessions, id)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newSession(id1))
		_ = store.Save(ctx, id2, newSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
