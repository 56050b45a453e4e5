package counter

import (
	"github.com/trezcool/arifa/core/school"
)

// CounterSet is one viewer's pending-attention breakdown. Only the categories
// relevant to the viewer's role are populated; Total is always their sum as
// computed, never a stored value.
type CounterSet struct {
	PendingSubmissions       int `json:"pendingSubmissions"` // for students: their own pending tasks
	UnreadDiscussionComments int `json:"unreadComments"`
	SystemNotifications      int `json:"notifications"`
	PendingAttendanceToday   int `json:"pendingAttendance"`
	UnreadCommunications     int `json:"unreadCommunications"`
	PendingPasswordRequests  int `json:"pendingPasswordRequests"`
	Total                    int `json:"total"`
}

func (svc *Service) aggregate(s *snapshot, viewer school.Viewer) CounterSet {
	switch viewer.Role {
	case school.RoleTeacher:
		return svc.aggregateTeacher(s, viewer)
	case school.RoleStudent:
		return svc.aggregateStudent(s, viewer)
	case school.RoleGuardian:
		return svc.aggregateGuardian(s, viewer)
	case school.RoleAdmin:
		return svc.aggregateAdmin(s)
	}
	return CounterSet{}
}

// teacherNotifTypes are the notification types that demand teacher attention.
// Submission and completion mirrors are excluded: the underlying facts are
// already counted as pending submissions.
var teacherNotifTypes = map[string]struct{}{
	school.NotifPendingGrading:      {},
	school.NotifEvaluationCompleted: {},
	school.NotifTeacherComment:      {},
}

func (svc *Service) aggregateTeacher(s *snapshot, viewer school.Viewer) CounterSet {
	vis := newVisibility(s)
	var cs CounterSet

	var subs, discussion []school.Comment
	for _, c := range s.comments {
		t, ok := vis.task(c.TaskID)
		if !ok || !t.OwnedBy(viewer) || c.AuthoredBy(viewer) {
			continue
		}
		if c.IsSubmission {
			if vis.authorAssigned(t, c) {
				subs = append(subs, c)
			}
			continue
		}
		if c.ReadByViewer(viewer) {
			continue
		}
		if vis.authorRole(c) != school.RoleStudent {
			continue
		}
		if vis.authorAssigned(t, c) {
			discussion = append(discussion, c)
		}
	}

	for _, latest := range latestSubmissions(dedupeComments(subs)) {
		if !latest.Graded() {
			cs.PendingSubmissions++
		}
	}

	discussion = dedupeComments(discussion)
	discussion = dropMirrored(discussion, s.notifs, viewer, svc.mirrorWindow)
	cs.UnreadDiscussionComments = len(discussion)

	for _, n := range s.notifs {
		if _, ok := vis.task(n.TaskID); !ok {
			continue // orphan, repair will remove it
		}
		if !n.Targets(viewer) || n.ReadByViewer(viewer) || viewer.Matches(n.FromUsername) {
			continue
		}
		if _, relevant := teacherNotifTypes[n.Type]; !relevant {
			continue
		}
		if u, ok := vis.user(n.FromUsername); !ok || u.Role != school.RoleStudent {
			continue
		}
		cs.SystemNotifications++
	}

	cs.PendingAttendanceToday = pendingAttendanceToday(s, viewer, vis)

	// the total folds in the cached year-to-date backlog when one exists,
	// otherwise today's figure
	attendance := s.attendanceYTD
	if attendance == 0 {
		attendance = cs.PendingAttendanceToday
	}
	cs.Total = cs.PendingSubmissions + cs.UnreadDiscussionComments + cs.SystemNotifications + attendance
	return cs
}

func (svc *Service) aggregateStudent(s *snapshot, viewer school.Viewer) CounterSet {
	vis := newVisibility(s)
	var cs CounterSet

	ownSubs := make(map[string][]school.Comment) // by task id
	for _, c := range s.comments {
		if c.IsSubmission && c.AuthoredBy(viewer) {
			ownSubs[c.TaskID] = append(ownSubs[c.TaskID], c)
		}
	}

	for _, t := range s.tasks {
		if !vis.assignedToTask(t, viewer.ID, viewer.Username) {
			continue
		}
		subs := ownSubs[t.ID]
		if len(subs) == 0 {
			cs.PendingSubmissions++
			continue
		}
		latest := subs[0]
		for _, sub := range subs[1:] {
			if sub.Timestamp.After(latest.Timestamp) {
				latest = sub
			}
		}
		if !latest.Graded() {
			cs.PendingSubmissions++
		}
	}

	var discussion []school.Comment
	for _, c := range s.comments {
		if c.IsSubmission || c.AuthoredBy(viewer) || c.ReadByViewer(viewer) {
			continue
		}
		t, ok := vis.task(c.TaskID)
		if !ok || !vis.assignedToTask(t, viewer.ID, viewer.Username) {
			continue
		}
		discussion = append(discussion, c)
	}
	discussion = dedupeComments(discussion)
	discussion = dropMirrored(discussion, s.notifs, viewer, svc.mirrorWindow)
	cs.UnreadDiscussionComments = len(discussion)

	for _, n := range s.notifs {
		if _, ok := vis.task(n.TaskID); !ok {
			continue // orphan, repair will remove it
		}
		if n.Targets(viewer) && !n.ReadByViewer(viewer) && !viewer.Matches(n.FromUsername) {
			cs.SystemNotifications++
		}
	}

	for _, comm := range s.comms {
		if svc.commVisibleToStudent(vis, comm, viewer) && !viewer.In(comm.ReadBy) {
			cs.UnreadCommunications++
		}
	}

	cs.Total = cs.PendingSubmissions + cs.UnreadDiscussionComments + cs.SystemNotifications + cs.UnreadCommunications
	return cs
}

// commVisibleToStudent decides whether a communication is addressed to the
// student. Course-wide communications match against the student's assignment
// records; the section-name and legacy activeCourses checks apply only to
// students with no assignment records at all.
func (svc *Service) commVisibleToStudent(vis *visibility, comm school.Communication, viewer school.Viewer) bool {
	switch comm.Type {
	case "student":
		return viewer.Matches(comm.TargetStudent)
	case "course":
		id := viewer.ID
		if id == "" {
			if u, ok := vis.usersByUsername[viewer.Username]; ok {
				id = u.ID
			}
		}
		assignments := vis.assignments[id]
		for _, sa := range assignments {
			if comm.TargetCourse != "" && sa.CourseID != comm.TargetCourse {
				continue
			}
			if comm.TargetSection != "" && sa.SectionID != comm.TargetSection {
				continue
			}
			if comm.TargetCourse == "" && comm.TargetSection == "" {
				continue
			}
			return true
		}
		// legacy fallbacks stand in only when no assignment records exist;
		// non-matching records mean not addressed
		if len(assignments) > 0 {
			return false
		}
		u, ok := vis.user(id)
		if !ok {
			return false
		}
		if comm.TargetSectionName != "" && u.SectionName == comm.TargetSectionName {
			return true
		}
		if comm.TargetCourse != "" && contains(u.ActiveCourses, comm.TargetCourse) {
			if comm.TargetSectionName == "" || u.SectionName == comm.TargetSectionName {
				return true
			}
		}
		return false
	}
	return false
}

func (svc *Service) aggregateGuardian(s *snapshot, viewer school.Viewer) CounterSet {
	vis := newVisibility(s)
	var cs CounterSet

	studentIDs := guardianStudentIDs(s, vis, viewer)
	if len(studentIDs) == 0 {
		return cs
	}

	// assignments for the guardian's students; legacy user placement records
	// fill in when the assignment collection has nothing for a student
	type placement struct{ courseID, sectionID string }
	placements := make(map[string][]placement)
	for _, id := range studentIDs {
		for _, sa := range vis.assignments[id] {
			placements[id] = append(placements[id], placement{sa.CourseID, sa.SectionID})
		}
		if len(placements[id]) == 0 {
			if u, ok := vis.usersByID[id]; ok && (u.CourseID != "" || u.SectionID != "") {
				placements[id] = append(placements[id], placement{u.CourseID, u.SectionID})
			}
		}
	}

	guardianID := viewer.ID
	for _, comm := range s.comms {
		switch comm.Type {
		case "student":
			for _, id := range studentIDs {
				if comm.TargetStudent != id {
					continue
				}
				if !comm.ReadByKey(guardianID, school.GuardianReadKey(guardianID, id)) {
					cs.UnreadCommunications++
				}
			}
		case "course":
			// at most one unread per (communication, student) pair
			for _, id := range studentIDs {
				matched := false
				for _, p := range placements[id] {
					if comm.TargetCourse != "" && p.courseID != comm.TargetCourse {
						continue
					}
					if comm.TargetSection != "" && p.sectionID != comm.TargetSection {
						continue
					}
					if comm.TargetCourse == "" && comm.TargetSection == "" {
						continue
					}
					matched = true
					break
				}
				if matched && !comm.ReadByKey(guardianID, school.GuardianReadKey(guardianID, id)) {
					cs.UnreadCommunications++
				}
			}
		}
	}

	cs.Total = cs.UnreadCommunications
	return cs
}

// guardianStudentIDs resolves the guardian's students: the per-year roster
// first, then explicit relations, then the legacy studentIds on the user
// record.
func guardianStudentIDs(s *snapshot, vis *visibility, viewer school.Viewer) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, g := range s.guardiansRoster {
		if viewer.Matches(g.ID) || viewer.Matches(g.Username) {
			for _, id := range g.StudentIDs {
				add(id)
			}
		}
	}
	if len(ids) > 0 {
		return ids
	}

	for _, rel := range s.guardianRelations {
		if viewer.Matches(rel.GuardianID) || viewer.Matches(rel.GuardianUsername) {
			add(rel.StudentID)
		}
	}
	if len(ids) > 0 {
		return ids
	}

	if u, ok := vis.user(viewer.ID); ok {
		for _, id := range u.StudentIDs {
			add(id)
		}
	} else if u, ok := vis.usersByUsername[viewer.Username]; ok {
		for _, id := range u.StudentIDs {
			add(id)
		}
	}
	return ids
}

func (svc *Service) aggregateAdmin(s *snapshot) CounterSet {
	var cs CounterSet
	for _, pr := range s.requests {
		if pr.Pending() {
			cs.PendingPasswordRequests++
		}
	}
	cs.Total = cs.PendingPasswordRequests
	return cs
}
