package portal

import "encoding/json"

// UpdateType discriminates push channel payloads.
type UpdateType string

const (
	// UpdateDeadlineAdded inserts a new deadline into the set.
	UpdateDeadlineAdded UpdateType = "DEADLINE_ADDED"
	// UpdateDeadlineUpdated replaces the deadline with a matching id.
	UpdateDeadlineUpdated UpdateType = "DEADLINE_UPDATED"
	// UpdateDeadlineRemoved drops the deadline with a matching id.
	UpdateDeadlineRemoved UpdateType = "DEADLINE_REMOVED"
	// UpdateAssignmentGraded marks the deadline of a graded assignment
	// completed. The only mutation path that changes Status.
	UpdateAssignmentGraded UpdateType = "ASSIGNMENT_GRADED"
	// UpdateSnapshot carries a full deadline set. Emitted by the
	// polling fallback when a refetch detects a changed set; never
	// sent by the push backend.
	UpdateSnapshot UpdateType = "DEADLINES_SNAPSHOT"
)

// Update is the discriminated union carried by push channel messages,
// one JSON object per message. Which fields are populated depends on
// Type:
//
//	DEADLINE_ADDED, DEADLINE_UPDATED  -> Deadline
//	DEADLINE_REMOVED                  -> DeadlineId
//	ASSIGNMENT_GRADED                 -> AssignmentId
//	DEADLINES_SNAPSHOT                -> Deadlines
type Update struct {
	Type         UpdateType `json:"type"`
	Deadline     *Deadline  `json:"deadline,omitempty"`
	DeadlineId   string     `json:"deadlineId,omitempty"`
	AssignmentId string     `json:"assignmentId,omitempty"`
	Deadlines    []Deadline `json:"deadlines,omitempty"`
}

// ParseUpdate decodes one push channel message.
func ParseUpdate(data []byte) (*Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeadlinesResponse is the body of the deadlines fetch endpoint.
type DeadlinesResponse struct {
	Deadlines []Deadline `json:"deadlines"`
}
