package create_appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil/memstore"
	createAppointment "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *createAppointment.Request) (*domain.Appointment, error) {
	args := m.Called(ctx, req)
	if a, ok := args.Get(0).(*domain.Appointment); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set("X-User-ID", "100")
	rec := httptest.NewRecorder()
	middleware.Auth(http.HandlerFunc(h.Handle)).ServeHTTP(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	uc := &mockUseCase{}
	h := NewHandler(uc, memstore.NopLogger{})

	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *createAppointment.Request) bool {
		return req.ClientID == 100 &&
			req.ProviderID == nil &&
			req.Date.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) &&
			req.StartTime == "09:30" &&
			assert.ObjectsAreEqual([]int64{1, 2}, req.ServiceIDs)
	})).Return(&domain.Appointment{
		ID:              7,
		ClientID:        100,
		ProviderID:      2,
		Date:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:30",
		EndTime:         types.TimeString("11:00"),
		DurationMinutes: 90,
		Status:          domain.StatusPending,
		TotalPrice:      2300,
	}, nil)

	rec := serve(h, `{"date":"2025-03-10","startTime":"09:30","serviceIds":[1,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body models.AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.ID)
	assert.Equal(t, int64(2), body.ProviderID)
	assert.Equal(t, "2025-03-10", body.Date)
	assert.Equal(t, "11:00", body.EndTime)
	assert.Equal(t, "pending", body.Status)
	uc.AssertExpectations(t)
}

func TestHandle_DomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: taken", domain.ErrSlotConflict), http.StatusConflict, "slot_conflict"},
		{domain.ErrOutsideAvailability, http.StatusUnprocessableEntity, "outside_availability"},
		{domain.ErrNoAvailableProvider, http.StatusConflict, "no_available_provider"},
		{domain.ErrServiceInactive, http.StatusUnprocessableEntity, "service_inactive"},
		{domain.ErrClientNotFound, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			uc := &mockUseCase{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)
			h := NewHandler(uc, memstore.NopLogger{})

			rec := serve(h, `{"clientId":5,"providerId":1,"date":"2025-03-10","startTime":"08:30","serviceIds":[1]}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
		})
	}
}

func TestHandle_BadRequests(t *testing.T) {
	uc := &mockUseCase{}
	h := NewHandler(uc, memstore.NopLogger{})

	for _, body := range []string{
		`not json`,
		`{"date":"10.03.2025","startTime":"09:30","serviceIds":[1]}`,
		`{"date":"2025-03-10","startTime":"9:30","serviceIds":[1]}`,
		`{"date":"2025-03-10","startTime":"09:30","serviceIds":[1],"extra":true}`,
	} {
		rec := serve(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"code":"invalid_input"`)
	}
	uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}
