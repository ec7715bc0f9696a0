package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"projecthub/internal/model"
)

type MockMembershipSource struct {
	mock.Mock
}

func (m *MockMembershipSource) IsMember(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, companyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipSource) CompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func actorWithRole(role model.UserRole) Actor {
	return Actor{ID: uuid.New(), Email: "actor@example.com", Role: role}
}

func TestRequireAdmin(t *testing.T) {
	engine := NewEngine(new(MockMembershipSource))

	assert.True(t, engine.RequireAdmin(actorWithRole(model.RoleAdmin)).Allowed)

	for _, role := range []model.UserRole{model.RoleEmployee, model.RoleFreelancer, model.RoleClient} {
		decision := engine.RequireAdmin(actorWithRole(role))
		assert.False(t, decision.Allowed)
		assert.Equal(t, "admin role required", decision.Reason)
	}
}

func TestCanAccessCompany(t *testing.T) {
	companyID := uuid.New()

	tests := []struct {
		name      string
		actor     Actor
		setupMock func(m *MockMembershipSource, actor Actor)
		allowed   bool
	}{
		{
			name:      "admin bypasses membership lookup",
			actor:     actorWithRole(model.RoleAdmin),
			setupMock: func(m *MockMembershipSource, actor Actor) {},
			allowed:   true,
		},
		{
			name:  "member is allowed",
			actor: actorWithRole(model.RoleEmployee),
			setupMock: func(m *MockMembershipSource, actor Actor) {
				m.On("IsMember", mock.Anything, actor.ID, companyID).Return(true, nil)
			},
			allowed: true,
		},
		{
			name:  "non-member is denied",
			actor: actorWithRole(model.RoleFreelancer),
			setupMock: func(m *MockMembershipSource, actor Actor) {
				m.On("IsMember", mock.Anything, actor.ID, companyID).Return(false, nil)
			},
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memberships := new(MockMembershipSource)
			tt.setupMock(memberships, tt.actor)
			engine := NewEngine(memberships)

			decision, err := engine.CanAccessCompany(context.Background(), tt.actor, companyID)

			assert.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			memberships.AssertExpectations(t)
		})
	}
}

func TestCanManageTimeEntry(t *testing.T) {
	companyID := uuid.New()
	ownerID := uuid.New()

	t.Run("owner manages own entry without membership", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		engine := NewEngine(memberships)
		actor := Actor{ID: ownerID, Role: model.RoleFreelancer}

		decision, err := engine.CanManageTimeEntry(context.Background(), actor, ownerID, companyID)

		assert.NoError(t, err)
		assert.True(t, decision.Allowed)
		memberships.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("member manages another user's entry", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		actor := actorWithRole(model.RoleEmployee)
		memberships.On("IsMember", mock.Anything, actor.ID, companyID).Return(true, nil)
		engine := NewEngine(memberships)

		decision, err := engine.CanManageTimeEntry(context.Background(), actor, ownerID, companyID)

		assert.NoError(t, err)
		assert.True(t, decision.Allowed)
		memberships.AssertExpectations(t)
	})

	t.Run("outsider is denied", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		actor := actorWithRole(model.RoleClient)
		memberships.On("IsMember", mock.Anything, actor.ID, companyID).Return(false, nil)
		engine := NewEngine(memberships)

		decision, err := engine.CanManageTimeEntry(context.Background(), actor, ownerID, companyID)

		assert.NoError(t, err)
		assert.False(t, decision.Allowed)
	})
}

func TestCanApproveTimeEntry(t *testing.T) {
	companyID := uuid.New()

	t.Run("admin approves anywhere", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		engine := NewEngine(memberships)

		decision, err := engine.CanApproveTimeEntry(context.Background(), actorWithRole(model.RoleAdmin), companyID)

		assert.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("member employee approves", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		actor := actorWithRole(model.RoleEmployee)
		memberships.On("IsMember", mock.Anything, actor.ID, companyID).Return(true, nil)
		engine := NewEngine(memberships)

		decision, err := engine.CanApproveTimeEntry(context.Background(), actor, companyID)

		assert.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("non-staff role is denied before membership", func(t *testing.T) {
		for _, role := range []model.UserRole{model.RoleFreelancer, model.RoleClient} {
			memberships := new(MockMembershipSource)
			engine := NewEngine(memberships)

			decision, err := engine.CanApproveTimeEntry(context.Background(), actorWithRole(role), companyID)

			assert.NoError(t, err)
			assert.False(t, decision.Allowed)
			memberships.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("non-member employee is denied", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		actor := actorWithRole(model.RoleEmployee)
		memberships.On("IsMember", mock.Anything, actor.ID, companyID).Return(false, nil)
		engine := NewEngine(memberships)

		decision, err := engine.CanApproveTimeEntry(context.Background(), actor, companyID)

		assert.NoError(t, err)
		assert.False(t, decision.Allowed)
	})
}

func TestScopeCompanies(t *testing.T) {
	t.Run("admin scope is unrestricted", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		engine := NewEngine(memberships)

		scope, err := engine.ScopeCompanies(context.Background(), actorWithRole(model.RoleAdmin))

		assert.NoError(t, err)
		assert.True(t, scope.Unrestricted)
		assert.Empty(t, scope.CompanyIDs)
		memberships.AssertNotCalled(t, "CompanyIDs", mock.Anything, mock.Anything)
	})

	t.Run("member scope narrows to their companies", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		actor := actorWithRole(model.RoleFreelancer)
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		memberships.On("CompanyIDs", mock.Anything, actor.ID).Return(ids, nil)
		engine := NewEngine(memberships)

		scope, err := engine.ScopeCompanies(context.Background(), actor)

		assert.NoError(t, err)
		assert.False(t, scope.Unrestricted)
		assert.Equal(t, ids, scope.CompanyIDs)
	})

	t.Run("member of nothing sees nothing", func(t *testing.T) {
		memberships := new(MockMembershipSource)
		actor := actorWithRole(model.RoleClient)
		memberships.On("CompanyIDs", mock.Anything, actor.ID).Return([]uuid.UUID{}, nil)
		engine := NewEngine(memberships)

		scope, err := engine.ScopeCompanies(context.Background(), actor)

		assert.NoError(t, err)
		assert.False(t, scope.Unrestricted)
		assert.Len(t, scope.CompanyIDs, 0)
	})
}
