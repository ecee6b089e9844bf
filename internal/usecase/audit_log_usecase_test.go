package usecase

import (
	"context"
	"testing"

	"wellness-appointments/internal/delivery/dto"
	"wellness-appointments/internal/domain/entity"
	"wellness-appointments/internal/domain/repository"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditLogRepository) FindAll(ctx context.Context, filter repository.AuditLogFilter) ([]entity.AuditLog, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AuditLog), args.Error(1)
}

func (m *MockAuditLogRepository) FindByID(ctx context.Context, id int64) (*entity.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuditLog), args.Error(1)
}

func TestAuditLogUsecase_GetAllAuditLogs_BuildsFilter(t *testing.T) {
	userID := uuid.New()
	repo := new(MockAuditLogRepository)
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f repository.AuditLogFilter) bool {
		return f.Action == entity.AuditActionAppointmentCancel &&
			f.EntityID == "apt-1" &&
			f.Limit == 5 &&
			f.UserID != nil && *f.UserID == userID
	})).Return([]entity.AuditLog{
		{ID: 2, UserID: &userID, Action: entity.AuditActionAppointmentCancel, Metadata: entity.JSON{"entity_id": "apt-1"}},
	}, nil)

	log, _ := logtest.NewNullLogger()
	uc := NewAuditLogUsecase(log, repo)

	resp, err := uc.GetAllAuditLogs(context.Background(), &dto.AuditLogQuery{
		Action:        entity.AuditActionAppointmentCancel,
		UserID:        userID.String(),
		AppointmentID: "apt-1",
		Limit:         5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, int64(2), resp.Logs[0].ID)
	repo.AssertExpectations(t)
}

func TestAuditLogUsecase_GetAllAuditLogs_InvalidUser(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	uc := NewAuditLogUsecase(log, new(MockAuditLogRepository))

	_, err := uc.GetAllAuditLogs(context.Background(), &dto.AuditLogQuery{UserID: "nope"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "user_id")
}

func TestAuditLogUsecase_GetAuditLog_NotFound(t *testing.T) {
	repo := new(MockAuditLogRepository)
	repo.On("FindByID", mock.Anything, int64(9)).Return(nil, nil)

	log, _ := logtest.NewNullLogger()
	uc := NewAuditLogUsecase(log, repo)

	_, err := uc.GetAuditLog(context.Background(), 9)
	assert.ErrorIs(t, err, ErrAuditLogNotFound)
}
