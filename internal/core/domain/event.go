package domain

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// EventTypeLoanCreated is the only event type emitted by the loan pipeline.
const EventTypeLoanCreated = "LOAN_CREATED"

// LoanEvent is the wire record published on the loan-created topic. The JSON
// key names (notably "empruntId") are consumed by existing deployments and
// must stay exactly as they are.
type LoanEvent struct {
	LoanID    int64     `json:"empruntId"`
	UserID    int64     `json:"userId"`
	BookID    int64     `json:"bookId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

var eventJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// NewLoanCreatedEvent derives the one-shot event from a persisted loan.
func NewLoanCreatedEvent(loan *Loan) LoanEvent {
	return LoanEvent{
		LoanID:    loan.ID,
		UserID:    loan.UserID,
		BookID:    loan.BookID,
		EventType: EventTypeLoanCreated,
		Timestamp: time.Now(),
	}
}

func (e LoanEvent) MarshalPayload() ([]byte, error) {
	return eventJSON.Marshal(e)
}

// LoanEventFromPayload decodes a delivered payload. Decode failures come back
// as ErrMalformedEvent so consumers can contain them per message.
func LoanEventFromPayload(payload []byte) (LoanEvent, error) {
	var e LoanEvent
	if err := eventJSON.Unmarshal(payload, &e); err != nil {
		return LoanEvent{}, ErrMalformedEvent
	}
	if e.LoanID == 0 || e.EventType == "" {
		return LoanEvent{}, ErrMalformedEvent
	}
	return e, nil
}
