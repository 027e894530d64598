package models

import "time"

// Customer is a destination customer row. Email is the identity key,
// case-insensitive and unique.
type Customer struct {
	ID               int64     `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	Phone            string    `db:"phone" json:"phone"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
	CustomerType     string    `db:"customer_type" json:"customer_type"`
	IsActive         bool      `db:"is_active" json:"is_active"`
}

// Student is a destination student row. Email is the identity key; CustomerID
// references the customer the student enrolled under.
type Student struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	CustomerID     int64     `db:"customer_id" json:"customer_id"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
	Program        string    `db:"program" json:"program"`
	Status         string    `db:"status" json:"status"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}

// Location is a destination location row, keyed by name (case-insensitive).
type Location struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

// Room is a destination room row, keyed by (location, name) case-insensitively.
type Room struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	LocationID int64  `db:"location_id" json:"location_id"`
	Capacity   int    `db:"capacity" json:"capacity"`
	RoomType   string `db:"room_type" json:"room_type"`
	IsActive   bool   `db:"is_active" json:"is_active"`
}

// Transaction is a destination transaction row. Description embeds the legacy
// sale id and acts as the idempotency token for synced rows.
type Transaction struct {
	ID              int64     `db:"id" json:"id"`
	CustomerID      int64     `db:"customer_id" json:"customer_id"`
	LocationID      *int64    `db:"location_id" json:"location_id"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	Amount          int64     `db:"amount" json:"amount"`
	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	PaymentMethod   string    `db:"payment_method" json:"payment_method"`
	Status          string    `db:"status" json:"status"`
	Description     string    `db:"description" json:"description"`
}

// TransactionRef is the projection of a previously synced transaction used to
// decide between the update and leave-untouched paths.
type TransactionRef struct {
	ID            int64  `db:"id"`
	PaymentMethod string `db:"payment_method"`
	Description   string `db:"description"`
}

// PaymentMethodUpdate is a queued payment-method correction for one transaction.
type PaymentMethodUpdate struct {
	ID            int64
	PaymentMethod string
}

// DiagnosticResult is a destination diagnostic row, keyed by
// (student id, assessment date) since the source lacks an importable key.
type DiagnosticResult struct {
	ID             int64     `db:"id" json:"id"`
	StudentID      int64     `db:"student_id" json:"student_id"`
	AssessmentDate time.Time `db:"assessment_date" json:"assessment_date"`
	Score          float64   `db:"score" json:"score"`
	Type           string    `db:"type" json:"type"`
	ResultData     string    `db:"result_data" json:"result_data"`
}
