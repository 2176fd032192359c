// AngelaMos | 2026
// entity.go

package prosthetic

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusReceived   Status = "received"
	StatusAnalysis   Status = "analysis"
	StatusProduction Status = "production"
	StatusAssembly   Status = "assembly"
	StatusAdjustment Status = "adjustment"
	StatusReady      Status = "ready"
	StatusDelivered  Status = "delivered"
)

// Transitions lists the forward order of the workflow. It documents the
// usual path only; UpdateStatus accepts any valid status from any other.
var Transitions = []Status{
	StatusPending,
	StatusReceived,
	StatusAnalysis,
	StatusProduction,
	StatusAssembly,
	StatusAdjustment,
	StatusReady,
	StatusDelivered,
}

func (s Status) Valid() bool {
	for _, v := range Transitions {
		if v == s {
			return true
		}
	}
	return false
}

// Next returns the following forward step, or false at the end.
func (s Status) Next() (Status, bool) {
	for i, v := range Transitions {
		if v == s && i+1 < len(Transitions) {
			return Transitions[i+1], true
		}
	}
	return "", false
}

const (
	UrgencyLow    = "low"
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"
)

type Order struct {
	ID             string     `db:"id"`
	OrganizationID string     `db:"organization_id"`
	PatientID      string     `db:"patient_id"`
	DentistID      string     `db:"dentist_id"`
	LaboratoryID   *string    `db:"laboratory_id"`
	TechnicianID   *string    `db:"technician_id"`
	WorkType       string     `db:"work_type"`
	Material       string     `db:"material"`
	Shade          string     `db:"shade"`
	Urgency        string     `db:"urgency"`
	Deadline       *time.Time `db:"deadline"`
	Status         Status     `db:"status"`
	Notes          string     `db:"notes"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	PatientName    string     `db:"patient_name"`
}

// Event is one row of an order's status history.
type Event struct {
	ID         string    `db:"id"`
	OrderID    string    `db:"order_id"`
	FromStatus Status    `db:"from_status"`
	ToStatus   Status    `db:"to_status"`
	ActorID    string    `db:"actor_id"`
	ActorRole  string    `db:"actor_role"`
	Notes      string    `db:"notes"`
	CreatedAt  time.Time `db:"created_at"`
}

type Comment struct {
	ID        string    `db:"id"`
	OrderID   string    `db:"order_id"`
	AuthorID  string    `db:"author_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

type Attachment struct {
	ID          string    `db:"id"`
	OrderID     string    `db:"order_id"`
	UploaderID  string    `db:"uploader_id"`
	FileName    string    `db:"file_name"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	StorageKey  string    `db:"storage_key"`
	CreatedAt   time.Time `db:"created_at"`
}

type ListFilter struct {
	Status    Status
	DentistID string
	PatientID string
}
