package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/exam-scheduler/internal/dto"
)

const reportedFailureLimit = 10

var remediationSuggestions = []string{
	"Extend the exam window to add more exam dates",
	"Use 5 slots per day if the affected teachers accept evening exams",
	"Relax teacher constraints (daily limit, unavailable dates or times)",
	"Add more exam rooms or larger rooms",
	"Place the remaining courses manually",
}

func buildRunMessage(result *dto.ScheduleResult) string {
	if result.Success {
		return fmt.Sprintf("Scheduling succeeded: %d course exam(s) arranged in %d session(s), success rate %.1f%%",
			result.Placed, result.Arrangements, successRate(result.Placed, result.Total))
	}
	var b strings.Builder
	if result.Cancelled {
		fmt.Fprintf(&b, "Scheduling cancelled after placing %d of %d course(s); placed exams were kept.\n\n", result.Placed, result.Total)
	} else {
		fmt.Fprintf(&b, "Scheduling incomplete: %d of %d course(s) placed, success rate %.1f%%.\n\n",
			result.Placed, result.Total, successRate(result.Placed, result.Total))
	}
	b.WriteString(failureReport(result))
	return b.String()
}

func successRate(placed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(placed) / float64(total) * 100
}

// failureReport summarises unplaced courses and what an operator can change.
func failureReport(result *dto.ScheduleResult) string {
	w := result.Window
	var b strings.Builder
	fmt.Fprintf(&b, "Failed courses: %d\n", len(result.Failed))
	fmt.Fprintf(&b, "Exam window: %s to %s (%d days)\n", w.StartDate, w.EndDate, w.Days)
	fmt.Fprintf(&b, "Slots per day: %d\n", w.SlotsPerDay)
	fmt.Fprintf(&b, "Total slots: %d\n", w.Days*w.SlotsPerDay)

	b.WriteString("\nUnplaced courses:\n")
	for i, course := range result.Failed {
		if i == reportedFailureLimit {
			fmt.Fprintf(&b, "... and %d more\n", len(result.Failed)-reportedFailureLimit)
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s (%s, %d students)\n", i+1, course.Title, course.Teacher, course.ClassSection, course.StudentCount)
	}

	b.WriteString("\nSuggestions:\n")
	for i, s := range remediationSuggestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
