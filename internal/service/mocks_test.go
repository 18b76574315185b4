package service_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/psoldner/tripcrew/backend/internal/domain"
	"github.com/psoldner/tripcrew/backend/internal/repo"
)

// Hand-written test doubles for the repo interfaces.
// Set only the method fields your test needs; unset methods return zero values.

type mockTripRepo struct {
	create         func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID        func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listOpen       func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	updateSettings func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListOpen(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listOpen(ctx, p)
}
func (m *mockTripRepo) UpdateSettings(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.updateSettings(ctx, trip)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockMembershipRepo struct {
	create            func(ctx context.Context, m domain.Membership) (domain.Membership, error)
	getByID           func(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error)
	getByTripAndActor func(ctx context.Context, tripID, actorID uuid.UUID) (domain.Membership, error)
	listByTrip        func(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error)
	approve           func(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error)
	decline           func(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error)
}

func (m *mockMembershipRepo) Create(ctx context.Context, mem domain.Membership) (domain.Membership, error) {
	return m.create(ctx, mem)
}
func (m *mockMembershipRepo) GetByID(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error) {
	return m.getByID(ctx, tripID, id)
}
func (m *mockMembershipRepo) GetByTripAndActor(ctx context.Context, tripID, actorID uuid.UUID) (domain.Membership, error) {
	if m.getByTripAndActor != nil {
		return m.getByTripAndActor(ctx, tripID, actorID)
	}
	return domain.Membership{}, domain.ErrNotFound
}
func (m *mockMembershipRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockMembershipRepo) Approve(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error) {
	return m.approve(ctx, tripID, id)
}
func (m *mockMembershipRepo) Decline(ctx context.Context, tripID, id uuid.UUID) (domain.Membership, error) {
	return m.decline(ctx, tripID, id)
}

// compile-time check: mockMembershipRepo must satisfy repo.MembershipRepo.
var _ repo.MembershipRepo = (*mockMembershipRepo)(nil)

type mockChatRepo struct {
	append      func(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error)
	listByTrip  func(ctx context.Context, tripID uuid.UUID) ([]domain.ChatMessage, error)
	countByTrip func(ctx context.Context, tripID uuid.UUID) (int64, error)
}

func (m *mockChatRepo) Append(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	return m.append(ctx, msg)
}
func (m *mockChatRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.ChatMessage, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockChatRepo) CountByTrip(ctx context.Context, tripID uuid.UUID) (int64, error) {
	if m.countByTrip != nil {
		return m.countByTrip(ctx, tripID)
	}
	return 0, nil
}

// compile-time check: mockChatRepo must satisfy repo.ChatRepo.
var _ repo.ChatRepo = (*mockChatRepo)(nil)
