package services

import (
	"context"
	"testing"

	"project-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubOwners struct {
	repositories.ProjectRepository
	owners map[uuid.UUID]uuid.UUID
	calls  int
}

func (s *stubOwners) FindOwnerID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	s.calls++
	owner, ok := s.owners[id]
	if !ok {
		return uuid.Nil, repositories.ErrNotFound
	}
	return owner, nil
}

func TestAuthorization_OwnerAllowed(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	project := uuid.Must(uuid.NewV4())
	svc := NewAuthorizationService(&stubOwners{owners: map[uuid.UUID]uuid.UUID{project: owner}}, zap.NewNop())

	decision, err := svc.IsAuthorized(context.Background(), AuthorizationRequest{
		UserID: owner, Resource: ResourceProject, Action: ActionRead, ResourceID: project,
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed())
}

func TestAuthorization_TaskUsesProjectOwner(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	project := uuid.Must(uuid.NewV4())
	svc := NewAuthorizationService(&stubOwners{owners: map[uuid.UUID]uuid.UUID{project: owner}}, zap.NewNop())

	err := svc.Authorize(context.Background(), AuthorizationRequest{
		UserID: owner, Resource: ResourceTask, Action: ActionToggle,
		ResourceID: uuid.Must(uuid.NewV4()), ProjectID: project,
	})
	assert.NoError(t, err)
}

func TestAuthorization_OtherUserDenied(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	project := uuid.Must(uuid.NewV4())
	core, logs := observer.New(zap.WarnLevel)
	svc := NewAuthorizationService(&stubOwners{owners: map[uuid.UUID]uuid.UUID{project: owner}}, zap.New(core))

	err := svc.Authorize(context.Background(), AuthorizationRequest{
		UserID: uuid.Must(uuid.NewV4()), Resource: ResourceProject, Action: ActionDelete, ResourceID: project,
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, logs.FilterMessage("Access denied").Len())
}

func TestAuthorization_MissingProject(t *testing.T) {
	svc := NewAuthorizationService(&stubOwners{owners: map[uuid.UUID]uuid.UUID{}}, zap.NewNop())

	err := svc.Authorize(context.Background(), AuthorizationRequest{
		UserID: uuid.Must(uuid.NewV4()), Resource: ResourceProject, Action: ActionRead, ResourceID: uuid.Must(uuid.NewV4()),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthorization_KnownOwnerSkipsLookup(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	stub := &stubOwners{owners: map[uuid.UUID]uuid.UUID{}}
	svc := NewAuthorizationService(stub, zap.NewNop())

	err := svc.Authorize(context.Background(), AuthorizationRequest{
		UserID: owner, Resource: ResourceProject, Action: ActionRead,
		ResourceID: uuid.Must(uuid.NewV4()), OwnerID: owner,
	})
	assert.NoError(t, err)
	assert.Zero(t, stub.calls)
}

func TestAuthorization_AnonymousDenied(t *testing.T) {
	svc := NewAuthorizationService(&stubOwners{}, zap.NewNop())

	decision, err := svc.IsAuthorized(context.Background(), AuthorizationRequest{Resource: ResourceProject})
	require.NoError(t, err)
	assert.False(t, decision.Allowed())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "success", ErrorCode(nil))
	assert.Equal(t, "validation_error", ErrorCode(validationError("x")))
	assert.Equal(t, "duplicate_email", ErrorCode(ErrDuplicateEmail))
	assert.Equal(t, "invalid_credentials", ErrorCode(ErrInvalidCredentials))
	assert.Equal(t, "not_found", ErrorCode(ErrNotFound))
	assert.Equal(t, "unauthenticated", ErrorCode(ErrUnauthenticated))
	assert.Equal(t, "invalid_reference", ErrorCode(ErrInvalidReference))
	assert.Equal(t, "forbidden", ErrorCode(ErrForbidden))
	assert.Equal(t, "storage_error", ErrorCode(ErrStorage))
	assert.True(t, isUnexpected(ErrStorage))
	assert.False(t, isUnexpected(ErrNotFound))
}
