package domain

import (
	"time"
)

// Loan records a borrower taking a specific book. The id is assigned by the
// record store on creation; a loan is immutable afterwards.
type Loan struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID   int64     `json:"userId" gorm:"not null;index"`
	BookID   int64     `json:"bookId" gorm:"not null;index"`
	LoanDate time.Time `json:"loanDate" gorm:"not null"`
}

// CreateLoanRequest is the create-loan API input.
type CreateLoanRequest struct {
	UserID int64 `json:"userId" binding:"required"`
	BookID int64 `json:"bookId" binding:"required"`
}

// CreateLoanResult is the caller-visible outcome of a successful create.
// NotificationPending is set when the loan persisted but its event could not
// be published: the loan exists, only the downstream notification is delayed.
type CreateLoanResult struct {
	Loan                *Loan `json:"loan"`
	NotificationPending bool  `json:"notificationPending"`
}

// LoanDetailsView is a denormalized listing row. It joins a stored loan with
// live user/book lookups, so two listings may resolve different names.
type LoanDetailsView struct {
	LoanID    int64     `json:"loanId"`
	UserName  string    `json:"userName"`
	BookTitle string    `json:"bookTitle"`
	LoanDate  time.Time `json:"loanDate"`
}

// User is the minimal shape the user directory exposes.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Book is the minimal shape the book catalog exposes.
type Book struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
