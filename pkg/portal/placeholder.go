package portal

import "time"

// PlaceholderDeadlines returns the deterministic dataset the engine
// substitutes when the initial snapshot fetch fails, so callers always
// have something renderable. Offsets are relative to now.
func PlaceholderDeadlines(studentId string, now time.Time) []Deadline {
	day := func(n int) string {
		return now.AddDate(0, 0, n).Format(dueDateLayout)
	}
	return []Deadline{
		{
			Id:        "1",
			StudentId: studentId,
			Title:     "CS202 Assignment Due",
			Course:    "Data Structures",
			DueDate:   day(2),
			DueTime:   "23:59",
			Type:      DeadlineAssignment,
			Status:    StatusPending,
			Priority:  PriorityHigh,
		},
		{
			Id:        "2",
			StudentId: studentId,
			Title:     "Registration Deadline",
			Course:    "Spring 2025",
			DueDate:   day(5),
			DueTime:   "17:00",
			Type:      DeadlineRegistration,
			Status:    StatusPending,
			Priority:  PriorityMedium,
		},
		{
			Id:        "3",
			StudentId: studentId,
			Title:     "AI301 Midterm Exam",
			Course:    "Artificial Intelligence",
			DueDate:   day(21),
			DueTime:   "14:00",
			Type:      DeadlineExam,
			Status:    StatusPending,
			Priority:  PriorityHigh,
		},
		{
			Id:        "4",
			StudentId: studentId,
			Title:     "Library Book Return",
			Course:    "Library Services",
			DueDate:   day(7),
			DueTime:   "18:00",
			Type:      DeadlineLibrary,
			Status:    StatusPending,
			Priority:  PriorityLow,
		},
	}
}
