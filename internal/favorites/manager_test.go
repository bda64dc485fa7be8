package favorites

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"movie-app/internal/apperror"
	"movie-app/internal/domain/users"
	"movie-app/internal/pkg/logger"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpdateFavorites(ctx context.Context, userID string, favorites []string) (*users.User, error) {
	args := m.Called(ctx, userID, favorites)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}

func (m *mockStore) CreateActivity(ctx context.Context, a *users.Activity) error {
	return m.Called(ctx, a).Error(0)
}

func TestUpdate_ReplacesAndRecordsActivity(t *testing.T) {
	st := new(mockStore)
	ctx := context.Background()
	saved := &users.User{ID: "u-1", Favorites: users.MovieIDs{"603", "550"}}

	st.On("UpdateFavorites", ctx, "u-1", []string{"603", "550"}).Return(saved, nil).Once()
	st.On("CreateActivity", ctx, mock.MatchedBy(func(a *users.Activity) bool {
		return a.UserID == "u-1" && a.Action == users.ActionUnfavorite && a.MovieID == "27205"
	})).Return(nil).Once()

	m := NewManager(st, logger.Nop())
	u, err := m.Update(ctx, "u-1", []string{"603", "550"}, &Change{MovieID: "27205", Action: ActionRemove})
	require.NoError(t, err)
	assert.Equal(t, saved, u)
	st.AssertExpectations(t)
}

func TestUpdate_ActivityFailureIsSwallowed(t *testing.T) {
	st := new(mockStore)
	ctx := context.Background()
	saved := &users.User{ID: "u-1", Favorites: users.MovieIDs{"603"}}

	st.On("UpdateFavorites", ctx, "u-1", []string{"603"}).Return(saved, nil)
	st.On("CreateActivity", ctx, mock.Anything).Return(errors.New("activity table locked"))

	var buf bytes.Buffer
	m := NewManager(st, logger.NewWithWriter(logger.Config{Level: "debug"}, &buf))

	u, err := m.Update(ctx, "u-1", []string{"603"}, &Change{MovieID: "603", Action: ActionAdd})
	require.NoError(t, err)
	assert.Equal(t, users.MovieIDs{"603"}, u.Favorites)
	assert.Contains(t, buf.String(), "failed to record favorite activity")
}

func TestUpdate_NoActivityWhenPrimaryWriteFails(t *testing.T) {
	st := new(mockStore)
	ctx := context.Background()
	st.On("UpdateFavorites", ctx, "gone", []string{"603"}).Return(nil, apperror.NotFound("User"))

	m := NewManager(st, logger.Nop())
	_, err := m.Update(ctx, "gone", []string{"603"}, &Change{MovieID: "603", Action: ActionAdd})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	st.AssertNotCalled(t, "CreateActivity", mock.Anything, mock.Anything)
}

func TestUpdate_WithoutChangeAndNilList(t *testing.T) {
	st := new(mockStore)
	ctx := context.Background()
	st.On("UpdateFavorites", ctx, "u-1", []string{}).Return(&users.User{ID: "u-1", Favorites: users.MovieIDs{}}, nil).Twice()

	m := NewManager(st, logger.Nop())
	for i := 0; i < 2; i++ {
		u, err := m.Update(ctx, "u-1", nil, nil)
		require.NoError(t, err)
		assert.Empty(t, u.Favorites)
	}
	st.AssertNotCalled(t, "CreateActivity", mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}
