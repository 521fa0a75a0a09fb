// Package portal provides the real-time deadline synchronization core
// of the campusdesk student portal. It maintains a live, locally
// cached view of a student's deadlines fed by a push channel with a
// polling fallback, and exposes it to subscribers as read-only
// snapshots.
package portal

import (
	"fmt"
	"sort"
	"time"
)

// DeadlineType classifies a deadline record.
type DeadlineType string

const (
	DeadlineAssignment   DeadlineType = "assignment"
	DeadlineProject      DeadlineType = "project"
	DeadlineExam         DeadlineType = "exam"
	DeadlineRegistration DeadlineType = "registration"
	DeadlineLibrary      DeadlineType = "library"
	DeadlineReminder     DeadlineType = "reminder"
	DeadlineOther        DeadlineType = "other"
)

// DeadlineStatus is the lifecycle state of a deadline.
// A deadline moves from pending to completed exactly once and never
// reverts.
type DeadlineStatus string

const (
	StatusPending   DeadlineStatus = "pending"
	StatusCompleted DeadlineStatus = "completed"
)

// Priority is the display priority of a deadline.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Wire formats for the DueDate and DueTime fields.
const (
	dueDateLayout = "2006-01-02"
	dueTimeLayout = "15:04"
)

// Deadline represents a single deadline record as served by the portal
// backend. The JSON keys match the wire format of the deadlines API
// and push channel.
type Deadline struct {
	// Id is the unique, stable identifier of the record.
	Id string `json:"id"`
	// StudentId identifies the owning student.
	StudentId string `json:"studentId"`
	// AssignmentId links the deadline to a gradeable assignment, when
	// one exists. ASSIGNMENT_GRADED updates match on this field.
	AssignmentId string `json:"assignmentId,omitempty"`
	// Title is the display label of the deadline.
	Title string `json:"title"`
	// Course is the display label of the related course or service.
	Course string `json:"course"`
	// DueDate is the calendar date in "2006-01-02" form.
	DueDate string `json:"dueDate"`
	// DueTime is the time of day in "15:04" form.
	DueTime string `json:"dueTime"`
	// Type classifies the deadline.
	Type DeadlineType `json:"type"`
	// Status is pending or completed.
	Status DeadlineStatus `json:"status"`
	// Priority is the display priority.
	Priority Priority `json:"priority"`
}

// DueAt combines DueDate and DueTime into an absolute instant in the
// local time zone.
func (d *Deadline) DueAt() (time.Time, error) {
	t, err := time.ParseInLocation(dueDateLayout+" "+dueTimeLayout, d.DueDate+" "+d.DueTime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline %s: bad due instant: %w", d.Id, err)
	}
	return t, nil
}

// DeadlineSlice attaches the methods of sort.Interface to []Deadline,
// sorting ascending by due instant. Records with an unparseable due
// instant sort after all parseable ones.
type DeadlineSlice []Deadline

// Len returns the number of elements in the slice.
func (x DeadlineSlice) Len() int { return len(x) }

// Less reports whether the deadline at index i is due before the
// deadline at index j.
func (x DeadlineSlice) Less(i, j int) bool {
	a, aerr := x[i].DueAt()
	b, berr := x[j].DueAt()
	if aerr != nil {
		return false
	}
	if berr != nil {
		return true
	}
	return a.Before(b)
}

// Swap exchanges the elements at indices i and j.
func (x DeadlineSlice) Swap(i, j int) { x[i], x[j] = x[j], x[i] }

// SortDeadlines sorts deadlines ascending by due instant. The sort is
// stable so records sharing an instant keep their relative order.
func SortDeadlines(x []Deadline) { sort.Stable(DeadlineSlice(x)) }
