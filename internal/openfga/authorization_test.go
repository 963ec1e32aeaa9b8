package openfga

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRelations struct {
	mock.Mock
}

func (m *MockRelations) Check(ctx context.Context, user, relation, object string) (bool, error) {
	args := m.Called(ctx, user, relation, object)
	return args.Bool(0), args.Error(1)
}

func (m *MockRelations) Write(ctx context.Context, user, relation, object string) error {
	args := m.Called(ctx, user, relation, object)
	return args.Error(0)
}

func TestAdminAuthorizer_IsAdmin(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	user := "user:" + userID.String()

	tests := []struct {
		name    string
		allowed bool
		err     error
	}{
		{"allowed", true, nil},
		{"denied", false, nil},
		{"check fails", false, errors.New("unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relations := new(MockRelations)
			relations.On("Check", ctx, user, RelationAdmin, "event:norwegian-open").Return(tt.allowed, tt.err)

			ok, err := NewAdminAuthorizer(relations, "event:norwegian-open").IsAdmin(ctx, userID)

			if tt.err != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.allowed, ok)
			relations.AssertExpectations(t)
		})
	}
}

func TestAdminAuthorizer_GrantAdmin(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	relations := new(MockRelations)
	relations.On("Write", ctx, "user:"+userID.String(), RelationAdmin, "event:norwegian-open").Return(nil)

	require.NoError(t, NewAdminAuthorizer(relations, "event:norwegian-open").GrantAdmin(ctx, userID))
	relations.AssertExpectations(t)
}
