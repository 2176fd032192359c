// AngelaMos | 2026
// dto.go

package prosthetic

import (
	"time"
)

const dateLayout = "2006-01-02"

type CreateOrderRequest struct {
	PatientID    string  `json:"patient_id"    validate:"required,uuid"`
	DentistID    string  `json:"dentist_id"    validate:"required,uuid"`
	LaboratoryID *string `json:"laboratory_id" validate:"omitempty,uuid"`
	TechnicianID *string `json:"technician_id" validate:"omitempty,uuid"`
	WorkType     string  `json:"work_type"     validate:"required,min=2,max=120"`
	Material     string  `json:"material"      validate:"max=120"`
	Shade        string  `json:"shade"         validate:"max=32"`
	Urgency      string  `json:"urgency"       validate:"omitempty,oneof=low normal high urgent"`
	Deadline     string  `json:"deadline"      validate:"omitempty,datetime=2006-01-02"`
	Notes        string  `json:"notes"         validate:"max=4000"`
}

type UpdateOrderRequest struct {
	DentistID    *string `json:"dentist_id"    validate:"omitempty,uuid"`
	LaboratoryID *string `json:"laboratory_id" validate:"omitempty,uuid"`
	TechnicianID *string `json:"technician_id" validate:"omitempty,uuid"`
	WorkType     *string `json:"work_type"     validate:"omitempty,min=2,max=120"`
	Material     *string `json:"material"      validate:"omitempty,max=120"`
	Shade        *string `json:"shade"         validate:"omitempty,max=32"`
	Urgency      *string `json:"urgency"       validate:"omitempty,oneof=low normal high urgent"`
	Deadline     *string `json:"deadline"      validate:"omitempty,datetime=2006-01-02"`
	Notes        *string `json:"notes"         validate:"omitempty,max=4000"`
}

// UpdateStatusRequest leaves status unconstrained at the binding layer so
// the service owns the enum check.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"  validate:"max=2000"`
}

type CommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

type OrderResponse struct {
	ID           string    `json:"id"`
	PatientID    string    `json:"patient_id"`
	PatientName  string    `json:"patient_name"`
	DentistID    string    `json:"dentist_id"`
	LaboratoryID *string   `json:"laboratory_id"`
	TechnicianID *string   `json:"technician_id"`
	WorkType     string    `json:"work_type"`
	Material     string    `json:"material"`
	Shade        string    `json:"shade"`
	Urgency      string    `json:"urgency"`
	Deadline     *string   `json:"deadline"`
	Status       Status    `json:"status"`
	NextStatus   *Status   `json:"next_status"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type EventResponse struct {
	ID         string    `json:"id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type AttachmentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploaderID  string    `json:"uploader_id"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToOrderResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		PatientID:    o.PatientID,
		PatientName:  o.PatientName,
		DentistID:    o.DentistID,
		LaboratoryID: o.LaboratoryID,
		TechnicianID: o.TechnicianID,
		WorkType:     o.WorkType,
		Material:     o.Material,
		Shade:        o.Shade,
		Urgency:      o.Urgency,
		Status:       o.Status,
		Notes:        o.Notes,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	if o.Deadline != nil {
		d := o.Deadline.Format(dateLayout)
		resp.Deadline = &d
	}
	if next, ok := o.Status.Next(); ok {
		resp.NextStatus = &next
	}
	return resp
}

func ToEventResponse(e *Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
	}
}

func ToCommentResponse(c *Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		AuthorID:  c.AuthorID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

func ToAttachmentResponse(a *Attachment, url string) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		UploaderID:  a.UploaderID,
		URL:         url,
		CreatedAt:   a.CreatedAt,
	}
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
