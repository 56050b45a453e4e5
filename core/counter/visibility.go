package counter

import (
	"github.com/trezcool/arifa/core/school"
)

// visibility resolves whether an entity is addressed to a viewer under the
// current assignment graph. Resolution order is deterministic per entity type;
// ambiguous or missing assignment data fails closed (not visible), except the
// documented legacy fallbacks (user activeCourses, task assignedStudents).
type visibility struct {
	tasks           map[string]school.Task
	usersByID       map[string]school.User
	usersByUsername map[string]school.User
	sections        map[string]school.Section
	assignments     map[string][]school.StudentAssignment // by student id
}

func newVisibility(s *snapshot) *visibility {
	v := &visibility{
		tasks:           make(map[string]school.Task, len(s.tasks)),
		usersByID:       make(map[string]school.User, len(s.users)),
		usersByUsername: make(map[string]school.User, len(s.users)),
		sections:        make(map[string]school.Section, len(s.sections)),
		assignments:     make(map[string][]school.StudentAssignment),
	}
	for _, t := range s.tasks {
		v.tasks[t.ID] = t
	}
	for _, u := range s.users {
		v.usersByID[u.ID] = u
		if u.Username != "" {
			v.usersByUsername[u.Username] = u
		}
	}
	for _, sec := range s.sections {
		v.sections[sec.ID] = sec
	}
	for _, sa := range s.studentAssignments {
		v.assignments[sa.StudentID] = append(v.assignments[sa.StudentID], sa)
	}
	return v
}

func (v *visibility) task(id string) (school.Task, bool) {
	t, ok := v.tasks[id]
	return t, ok
}

func (v *visibility) user(identity string) (school.User, bool) {
	if u, ok := v.usersByID[identity]; ok {
		return u, true
	}
	u, ok := v.usersByUsername[identity]
	return u, ok
}

// authorRole resolves the role of a comment's actual author. The record's own
// tag wins; otherwise the user record decides. Unknown authors resolve to "".
func (v *visibility) authorRole(c school.Comment) school.Role {
	if c.AuthorRole != "" {
		return c.AuthorRole
	}
	if u, ok := v.user(c.Author()); ok {
		return u.Role
	}
	return ""
}

// assignedToTask decides whether a student is addressed by a task.
// Order: explicit student-id list, course/section membership (with the legacy
// activeCourses fallback), then the legacy username list.
func (v *visibility) assignedToTask(t school.Task, studentID, studentUsername string) bool {
	if studentID == "" && studentUsername != "" {
		if u, ok := v.usersByUsername[studentUsername]; ok {
			studentID = u.ID
		}
	}

	if t.SpecificStudents() {
		if len(t.AssignedStudentIDs) > 0 {
			return contains(t.AssignedStudentIDs, studentID)
		}
		return contains(t.AssignedStudents, studentUsername)
	}

	if t.AssignedTo == school.AssignCourse {
		courseID := t.CourseID()
		if courseID == "" {
			return false
		}
		assignments := v.assignments[studentID]
		for _, sa := range assignments {
			if sa.CourseID+"-"+sa.SectionID == courseID || sa.CourseID == courseID {
				return true
			}
		}
		// the legacy activeCourses record only stands in when the student has
		// no assignment records at all; existing non-matching records mean
		// not assigned
		if len(assignments) > 0 {
			return false
		}
		if u, ok := v.user(studentID); ok {
			return contains(u.ActiveCourses, courseID)
		}
		return false
	}

	// records predating assignment modes carry a plain username list
	return contains(t.AssignedStudents, studentUsername)
}

// authorAssigned reports whether a comment's author is a student actually
// addressed by the task. Unresolvable authors fail closed.
func (v *visibility) authorAssigned(t school.Task, c school.Comment) bool {
	if !t.SpecificStudents() {
		return true
	}
	u, ok := v.user(c.Author())
	if !ok {
		return false
	}
	return v.assignedToTask(t, u.ID, u.Username)
}

func contains(set []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
