package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Daskott/haven/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorStore connects to the emulator at FIRESTORE_EMULATOR_HOST,
// the firestore client picks the host up on its own.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "haven-test")
	require.NoError(t, err)

	store := NewWithClient(client)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestAlerts(t *testing.T) {
	ctx := context.Background()
	store := newEmulatorStore(t)
	now := time.Now().UTC().Truncate(time.Millisecond)
	userID := uuid.NewString()

	ids := []string{}
	for i := 0; i < 2; i++ {
		id := uuid.NewString()
		ids = append(ids, id)
		require.NoError(t, store.CreateAlert(ctx, &models.Alert{
			ID:        id,
			UserID:    userID,
			Lat:       models.Coordinate("40.5"),
			Lon:       models.Coordinate(`"-75"`),
			Status:    models.ACTIVE_ALERT,
			CreatedAt: now.Add(time.Duration(i) * time.Hour),
		}))
	}

	alert, err := store.FindAlert(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, userID, alert.UserID)
	assert.Equal(t, "40.5", alert.Lat.String())
	assert.Equal(t, "-75", alert.Lon.String())

	alerts, err := store.ListAlerts(ctx)
	require.NoError(t, err)
	positions := map[string]int{}
	for i, alert := range alerts {
		positions[alert.ID] = i
	}
	assert.Less(t, positions[ids[1]], positions[ids[0]], "Should list newest first")

	require.NoError(t, store.CancelAlert(ctx, ids[0], now))
	alert, err = store.FindAlert(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.CANCELLED_ALERT, alert.Status)

	assert.ErrorIs(t, store.CancelAlert(ctx, uuid.NewString(), now), models.ErrAlertNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	store := newEmulatorStore(t)
	userID := fmt.Sprintf("user-%v", uuid.NewString())

	_, err := store.FindUser(ctx, userID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	created, err := store.CreateUser(ctx, &models.User{ID: userID, Email: "tony@stark.com"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateUser(ctx, &models.User{ID: userID})
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, store.UpdateProfile(ctx, userID, "Tony", "+12025550123", []models.Contact{{Name: "Pepper", Phone: "202-555-0123"}}))
	require.NoError(t, store.SaveDeviceTokens(ctx, userID, []string{"t1", "t2"}))

	user, err := store.FindUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "tony@stark.com", user.Email)
	assert.Equal(t, "Tony", user.Name)
	assert.Equal(t, []string{"t1", "t2"}, user.Tokens())
	require.Len(t, user.Contacts, 1)
	assert.Equal(t, "Pepper", user.Contacts[0].Name)

	assert.ErrorIs(t, store.UpdateProfile(ctx, uuid.NewString(), "a", "b", nil), models.ErrUserNotFound)
}
