package counter

import (
	"github.com/trezcool/arifa/core/school"
)

// pendingAttendanceToday counts the teacher's course-sections still missing a
// complete attendance register for today. A section counts as pending when it
// has at least one assigned student and fewer distinct students marked today
// than assigned. Non-instructional days never pend.
func pendingAttendanceToday(s *snapshot, viewer school.Viewer, vis *visibility) int {
	if !s.calendar.InstructionalDay(s.now) {
		return 0
	}
	today := s.now.Format(school.DateLayout)

	// unique composite "courseId-sectionId" ids taught by the viewer
	type courseSection struct{ composite, sectionID string }
	seen := make(map[string]struct{})
	var taught []courseSection
	for _, ta := range s.teacherAssignments {
		if !ta.BelongsTo(viewer) {
			continue
		}
		sectionID := ta.ResolvedSectionID()
		if sectionID == "" {
			continue
		}
		courseID := ta.ResolvedCourseID()
		if courseID == "" {
			if sec, ok := vis.sections[sectionID]; ok && sec.CourseID != "" {
				courseID = sec.CourseID
			} else {
				courseID = "unknown-course"
			}
		}
		composite := courseID + "-" + sectionID
		if _, dup := seen[composite]; dup {
			continue
		}
		seen[composite] = struct{}{}
		taught = append(taught, courseSection{composite, sectionID})
	}

	assignedPerSection := make(map[string]int)
	for _, sa := range s.studentAssignments {
		if sa.SectionID != "" {
			assignedPerSection[sa.SectionID]++
		}
	}

	pending := 0
	for _, cs := range taught {
		assigned := assignedPerSection[cs.sectionID]
		if assigned == 0 {
			continue
		}
		marked := make(map[string]struct{})
		for _, rec := range s.attendance {
			if rec.Date == today && rec.Course == cs.composite && rec.StudentUsername != "" {
				marked[rec.StudentUsername] = struct{}{}
			}
		}
		if len(marked) < assigned {
			pending++
		}
	}
	return pending
}
