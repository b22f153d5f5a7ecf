package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest, CodeInvalidInput},
		{domain.NewInvalidAvailability("overlap"), http.StatusUnprocessableEntity, CodeInvalidAvailability},
		{domain.ErrServiceNotFound, http.StatusNotFound, CodeServiceNotFound},
		{domain.ErrServiceInactive, http.StatusUnprocessableEntity, CodeServiceInactive},
		{fmt.Errorf("%w: 08:30", domain.ErrOutsideAvailability), http.StatusUnprocessableEntity, CodeOutsideAvailability},
		{domain.ErrNoAvailableProvider, http.StatusConflict, CodeNoAvailableProvider},
		{fmt.Errorf("%w: lock", domain.ErrSlotConflict), http.StatusConflict, CodeSlotConflict},
		{&domain.IllegalTransitionError{From: domain.StatusPending, To: domain.StatusCompleted}, http.StatusConflict, CodeIllegalTransition},
		{domain.ErrImmutableAppointment, http.StatusConflict, CodeImmutableAppointment},
		{domain.ErrAppointmentReferenced, http.StatusConflict, CodeAppointmentReferenced},
		{domain.ErrAppointmentNotFound, http.StatusNotFound, CodeNotFound},
		{domain.ErrBlockNotFound, http.StatusNotFound, CodeNotFound},
		{domain.ErrClientNotFound, http.StatusNotFound, CodeNotFound},
		{domain.ErrProviderNotFound, http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("%w: db", domain.ErrInternal), http.StatusInternalServerError, CodeInternal},
		{fmt.Errorf("unexpected"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			m := MapDomainError(tt.err)
			assert.Equal(t, tt.status, m.Status)
			assert.Equal(t, tt.code, m.Code)
			assert.NotEmpty(t, m.Message)
		})
	}
}

func TestRespondDomainError_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	status := RespondDomainError(rec, &domain.IllegalTransitionError{From: domain.StatusPending, To: domain.StatusCompleted})

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeIllegalTransition, body.Code)
	assert.Contains(t, body.Message, "pending -> completed")
}

func TestRespondInternalError_HidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondDomainError(rec, fmt.Errorf("%w: pq: connection refused", domain.ErrInternal))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq")
}
