package models

import "time"

// Status is the circulation state of a book. Stored records only ever hold
// available, reserved or issued; overdue is derived at read time.
type Status string

const (
	StatusAvailable Status = "available"
	StatusIssued    Status = "issued"
	StatusOverdue   Status = "overdue"
	StatusReserved  Status = "reserved"
)

var ValidStatuses = []Status{StatusAvailable, StatusIssued, StatusOverdue, StatusReserved}

// OnLoan reports whether the status means the book is out with a borrower.
func (s Status) OnLoan() bool {
	return s == StatusIssued || s == StatusOverdue
}

type Book struct {
	ID       string `bson:"_id" json:"id" yaml:"id"`
	Title    string `bson:"title" json:"title" yaml:"title"`
	Author   string `bson:"author" json:"author" yaml:"author"`
	ISBN     string `bson:"isbn" json:"isbn" yaml:"isbn"`
	Category string `bson:"category" json:"category" yaml:"category"`
	Status   Status `bson:"status" json:"status" yaml:"status"`
	// DueDate and IssuedTo are set iff the book is on loan.
	DueDate    *time.Time `bson:"dueDate,omitempty" json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	IssuedTo   string     `bson:"issuedTo,omitempty" json:"issuedTo,omitempty" yaml:"issuedTo,omitempty"`
	ReservedBy string     `bson:"reservedBy,omitempty" json:"reservedBy,omitempty" yaml:"reservedBy,omitempty"`
	// OverdueAlertedAt is set by the overdue sweeper so each loan is alerted once.
	OverdueAlertedAt *time.Time `bson:"overdueAlertedAt,omitempty" json:"-" yaml:"-"`
	UpdatedAt        time.Time  `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}
