package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bankassist/internal/onboarding/models"
	"bankassist/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newApplication(nationalID string) *models.PendingApplication {
	return &models.PendingApplication{
		ApplicationNo: models.NewApplicationNo(),
		UserID:        uuid.New(),
		FirstName:     "Rahul",
		LastName:      "Sharma",
		DOB:           time.Date(1990, 8, 15, 0, 0, 0, 0, time.UTC),
		NationalID:    nationalID,
		TaxID:         "ABCDE1234F",
		Status:        models.StatusPending,
	}
}

func (s *MemoryStoreSuite) TestCreateAndFind() {
	app := s.newApplication("123456789012")
	s.Require().NoError(s.store.Create(s.ctx, app))
	s.NotEqual(uuid.Nil, app.ID)
	s.False(app.CreatedAt.IsZero())

	found, err := s.store.FindByNationalID(s.ctx, "123456789012")
	s.Require().NoError(err)
	s.Equal(app.ApplicationNo, found.ApplicationNo)
	s.Equal(models.StatusPending, found.Status)
}

func (s *MemoryStoreSuite) TestFindUnknownNationalID() {
	_, err := s.store.FindByNationalID(s.ctx, "999999999999")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDuplicateNationalIDRejected() {
	s.Require().NoError(s.store.Create(s.ctx, s.newApplication("123456789012")))
	err := s.store.Create(s.ctx, s.newApplication("123456789012"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}
