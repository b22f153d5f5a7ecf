package change_appointment_status

// ChangeStatusRequest HTTP request model
type ChangeStatusRequest struct {
	Status string `json:"status"` // confirmed, completed, cancelled, no_show
}
