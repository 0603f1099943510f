package repository

import (
	"context"
	"testing"

	"citabot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBookingRepository(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceBookings(ctx, models.DefaultSeedBookings()))

	t.Run("ListKeepsInsertionOrder", func(t *testing.T) {
		list, err := repo.ListBookings(ctx)
		require.NoError(t, err)
		require.Len(t, list, 5)
		for i, b := range list {
			assert.Equal(t, int64(i+1), b.ID)
		}
	})

	t.Run("CreateAssignsNextID", func(t *testing.T) {
		b := &models.Booking{Date: "2025-11-25", Time: "15:00", Client: "Cliente Nuevo", Status: models.StatusPending}
		require.NoError(t, repo.CreateBooking(ctx, b))
		assert.Equal(t, int64(6), b.ID)
		assert.False(t, b.CreatedAt.IsZero())
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		got, err := repo.GetBooking(ctx, 2)
		require.NoError(t, err)
		require.NotNil(t, got)
		got.Client = "changed"

		again, _ := repo.GetBooking(ctx, 2)
		assert.Equal(t, "Juan Pérez", again.Client)
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetBooking(ctx, 99)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Update", func(t *testing.T) {
		got, _ := repo.GetBooking(ctx, 2)
		got.Status = models.StatusConfirmed
		ok, err := repo.UpdateBooking(ctx, got)
		require.NoError(t, err)
		assert.True(t, ok)

		again, _ := repo.GetBooking(ctx, 2)
		assert.Equal(t, models.StatusConfirmed, again.Status)

		ok, err = repo.UpdateBooking(ctx, &models.Booking{ID: 99})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DeleteThenIDsStayUnique", func(t *testing.T) {
		ok, err := repo.DeleteBooking(ctx, 6)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.DeleteBooking(ctx, 6)
		require.NoError(t, err)
		assert.False(t, ok)

		b := &models.Booking{Date: "2025-11-26", Time: "10:00"}
		require.NoError(t, repo.CreateBooking(ctx, b))
		assert.Equal(t, int64(7), b.ID)
	})

	t.Run("Clear", func(t *testing.T) {
		n, err := repo.ClearBookings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6, n)

		list, _ := repo.ListBookings(ctx)
		assert.Empty(t, list)
	})
}

func TestMemoryMessageRepository(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	first := &models.Message{Sender: models.SenderBot, Text: "hola"}
	second := &models.Message{Sender: models.SenderUser, Text: "quiero una cita"}
	require.NoError(t, repo.AppendMessage(ctx, first))
	require.NoError(t, repo.AppendMessage(ctx, second))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	list, err := repo.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hola", list[0].Text)

	n, err := repo.CountMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.ClearMessages(ctx))
	n, _ = repo.CountMessages(ctx)
	assert.Zero(t, n)
}

func TestMemoryScreenRepository(t *testing.T) {
	repo := NewMemoryScreenRepository()
	ctx := context.Background()

	t.Run("SetAndGetScreen", func(t *testing.T) {
		screen := &models.Screen{ID: "default", ActiveTab: models.TabTablet}
		require.NoError(t, repo.SetScreen(ctx, screen))

		got, err := repo.GetScreen(ctx, "default")
		require.NoError(t, err)
		assert.Equal(t, screen, got)

		got.ActiveTab = models.TabInfo
		again, _ := repo.GetScreen(ctx, "default")
		assert.Equal(t, models.TabTablet, again.ActiveTab)
	})

	t.Run("ClearScreen", func(t *testing.T) {
		require.NoError(t, repo.ClearScreen(ctx, "default"))
		got, _ := repo.GetScreen(ctx, "default")
		assert.Nil(t, got)
	})
}
