package change_appointment_status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/testutil/memstore"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ChangeStatus(ctx context.Context, id int64, newStatus domain.AppointmentStatus) (*domain.Appointment, error) {
	args := m.Called(ctx, id, newStatus)
	if a, ok := args.Get(0).(*domain.Appointment); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(h *Handler, id, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/appointments/{appointmentId}/status", h.Handle).Methods(http.MethodPatch)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/appointments/"+id+"/status", strings.NewReader(body)))
	return rec
}

func TestHandle(t *testing.T) {
	svc := &mockService{}
	h := NewHandler(svc, memstore.NopLogger{})

	svc.On("ChangeStatus", mock.Anything, int64(4), domain.StatusConfirmed).
		Return(&domain.Appointment{ID: 4, Status: domain.StatusConfirmed}, nil).Once()
	rec := serve(h, "4", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

	svc.On("ChangeStatus", mock.Anything, int64(4), domain.StatusCompleted).
		Return(nil, &domain.IllegalTransitionError{From: domain.StatusPending, To: domain.StatusCompleted}).Once()
	rec = serve(h, "4", `{"status":"completed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"illegal_transition"`)

	svc.On("ChangeStatus", mock.Anything, int64(9), domain.StatusCancelled).
		Return(nil, domain.ErrAppointmentNotFound).Once()
	rec = serve(h, "9", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.AssertExpectations(t)
}

func TestHandle_InvalidInput(t *testing.T) {
	svc := &mockService{}
	h := NewHandler(svc, memstore.NopLogger{})

	assert.Equal(t, http.StatusBadRequest, serve(h, "x", `{"status":"confirmed"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "4", `{"status":"archived"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "4", `{}`).Code)
	svc.AssertNotCalled(t, "ChangeStatus", mock.Anything, mock.Anything, mock.Anything)
}
