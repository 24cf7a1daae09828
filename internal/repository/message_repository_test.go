package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhive/mentor-booking/internal/model"
)

func TestMessageAppendAndOrder(t *testing.T) {
	repo := NewMessageRepo(openTestDB(t))
	ctx := context.Background()

	for _, content := range []string{"hi", "hello", "see you at 10"} {
		m := &model.Message{ChatID: 1, SenderID: 2, Content: content}
		require.NoError(t, repo.Create(ctx, m))
		assert.NotZero(t, m.ID)
		assert.False(t, m.CreatedAt.IsZero())
	}

	msgs, err := repo.ListByChat(ctx, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "see you at 10", msgs[2].Content)
	assert.Less(t, msgs[0].ID, msgs[1].ID)

	// Another chat's history does not leak in.
	other, err := repo.ListByChat(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}
