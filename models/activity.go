package models

import "time"

type ActivityKind string

const (
	ActivityIssued       ActivityKind = "issued"
	ActivityReturned     ActivityKind = "returned"
	ActivityReserved     ActivityKind = "reserved"
	ActivityRenewed      ActivityKind = "renewed"
	ActivityEdited       ActivityKind = "edited"
	ActivityOverdueAlert ActivityKind = "overdue_alert"
)

// Activity records one circulation event for the librarian's recent activity feed.
type Activity struct {
	ID        string       `bson:"_id" json:"id"`
	Kind      ActivityKind `bson:"kind" json:"kind"`
	BookID    string       `bson:"bookId" json:"bookId"`
	BookTitle string       `bson:"bookTitle" json:"bookTitle"`
	Actor     string       `bson:"actor,omitempty" json:"actor,omitempty"`     // who acted
	Subject   string       `bson:"subject,omitempty" json:"subject,omitempty"` // borrower, if any
	At        time.Time    `bson:"at" json:"at"`
}
