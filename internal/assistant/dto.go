// AngelaMos | 2026
// dto.go

package assistant

type ChatMessage struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=40,dive"`
	Page     string        `json:"page"     validate:"max=100"`
}

type SummaryResponse struct {
	AppointmentsToday   int   `json:"appointments_today"`
	PendingAppointments int   `json:"pending_appointments"`
	TotalPatients       int   `json:"total_patients"`
	MonthRevenueCents   int64 `json:"month_revenue_cents"`
}

type ChatResponse struct {
	Reply   string          `json:"reply"`
	Source  string          `json:"source"`
	Summary SummaryResponse `json:"summary"`
}

func ToSummaryResponse(s Summary) SummaryResponse {
	return SummaryResponse(s)
}
