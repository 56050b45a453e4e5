package school

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Roles
type Role string

const (
	RoleStudent  Role = "student"
	RoleTeacher  Role = "teacher"
	RoleGuardian Role = "guardian"
	RoleAdmin    Role = "admin"
)

// Task assignment modes
const (
	AssignCourse   = "course"
	AssignStudent  = "student"
	AssignSpecific = "specific" // legacy alias of AssignStudent
)

// Notification types
const (
	NotifTaskSubmission      = "task_submission"
	NotifPendingGrading      = "pending_grading"
	NotifTaskCompleted       = "task_completed"
	NotifEvaluationCompleted = "evaluation_completed"
	NotifTeacherComment      = "teacher_comment"
)

// Password request statuses
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Viewer identifies the user counts are computed for. ReadBy sets and target
// lists may reference either the id or the username, so both are carried.
type Viewer struct {
	ID       string
	Username string
	Role     Role
}

// Matches reports whether the given stored identity refers to this viewer.
func (v Viewer) Matches(identity string) bool {
	return identity != "" && (identity == v.ID || identity == v.Username)
}

// In reports whether any identity in the set refers to this viewer.
func (v Viewer) In(identities []string) bool {
	for _, id := range identities {
		if v.Matches(id) {
			return true
		}
	}
	return false
}

// Task is a unit of work assigned by a teacher to a course-section or to
// specific students. Owned by the authoring teacher.
type Task struct {
	ID                 string   `json:"id" validate:"required"`
	Title              string   `json:"title"`
	AssignedTo         string   `json:"assignedTo"` // course | student (legacy: specific)
	CourseSectionID    string   `json:"courseSectionId,omitempty"`
	Course             string   `json:"course,omitempty"` // legacy course-section id
	AssignedStudentIDs []string `json:"assignedStudentIds,omitempty"`
	AssignedStudents   []string `json:"assignedStudents,omitempty"` // legacy usernames
	AssignedBy         string   `json:"assignedBy,omitempty"`       // teacher username
	AssignedByID       string   `json:"assignedById,omitempty"`
	Status             string   `json:"status,omitempty"`
}

// CourseID resolves the task's target course-section id, falling back to the
// legacy field.
func (t Task) CourseID() string {
	if t.CourseSectionID != "" {
		return t.CourseSectionID
	}
	return t.Course
}

// SpecificStudents reports whether the task targets an explicit student list.
func (t Task) SpecificStudents() bool {
	return t.AssignedTo == AssignStudent || t.AssignedTo == AssignSpecific
}

// OwnedBy reports whether the viewer authored the task.
func (t Task) OwnedBy(v Viewer) bool {
	return v.Matches(t.AssignedBy) || v.Matches(t.AssignedByID)
}

// Comment belongs to a task. A comment with IsSubmission set represents a
// deliverable, not a discussion message.
type Comment struct {
	ID              string       `json:"id"`
	TaskID          string       `json:"taskId" validate:"required"`
	StudentUsername string       `json:"studentUsername"`
	StudentName     string       `json:"studentName,omitempty"`
	Text            string       `json:"comment"`
	Timestamp       time.Time    `json:"timestamp"`
	IsSubmission    bool         `json:"isSubmission"`
	ReadBy          []string     `json:"readBy,omitempty"`
	AuthorUsername  string       `json:"authorUsername,omitempty"`
	AuthorRole      Role         `json:"authorRole,omitempty"`
	Grade           null.Float64 `json:"grade,omitempty"`
}

// Author resolves the actual author, falling back to the legacy field.
func (c Comment) Author() string {
	if c.AuthorUsername != "" {
		return c.AuthorUsername
	}
	return c.StudentUsername
}

func (c Comment) AuthoredBy(v Viewer) bool {
	return v.Matches(c.AuthorUsername) || v.Matches(c.StudentUsername)
}

func (c Comment) ReadByViewer(v Viewer) bool {
	return v.In(c.ReadBy)
}

func (c Comment) Graded() bool {
	return c.Grade.Valid
}

// Notification mirrors a task event for a target role/identity set.
type Notification struct {
	ID              string    `json:"id"`
	Type            string    `json:"type" validate:"required"`
	TaskID          string    `json:"taskId" validate:"required"`
	FromUsername    string    `json:"fromUsername"`
	TargetUserRole  Role      `json:"targetUserRole"`
	TargetUsernames []string  `json:"targetUsernames,omitempty"`
	ReadBy          []string  `json:"readBy,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Targets reports whether the notification is addressed to the viewer.
func (n Notification) Targets(v Viewer) bool {
	return n.TargetUserRole == v.Role && v.In(n.TargetUsernames)
}

func (n Notification) ReadByViewer(v Viewer) bool {
	return v.In(n.ReadBy)
}

// AttendanceRecord marks one student's presence on one date for one
// course-section (composite "courseId-sectionId" id).
type AttendanceRecord struct {
	Date            string `json:"date" validate:"required"` // YYYY-MM-DD
	Course          string `json:"course" validate:"required"`
	StudentUsername string `json:"studentUsername"`
	Status          string `json:"status,omitempty"`
}

// Communication is addressed to a whole course-section or to one student.
// ReadBy entries are either a bare reader id or a composite
// "readerId_forStudent_studentId" key so one guardian can track several
// students independently.
type Communication struct {
	ID                string   `json:"id" validate:"required"`
	Type              string   `json:"type" validate:"required"` // course | student
	TargetCourse      string   `json:"targetCourse,omitempty"`
	TargetSection     string   `json:"targetSection,omitempty"`
	TargetSectionName string   `json:"targetSectionName,omitempty"`
	TargetStudent     string   `json:"targetStudent,omitempty"`
	ReadBy            []string `json:"readBy,omitempty"`
}

func (c Communication) readBySet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ReadBy))
	for _, r := range c.ReadBy {
		set[r] = struct{}{}
	}
	return set
}

// ReadByKey reports whether either the composite key or the bare reader id is
// present in the readBy set.
func (c Communication) ReadByKey(readerID, compositeKey string) bool {
	set := c.readBySet()
	if _, ok := set[compositeKey]; ok {
		return true
	}
	_, ok := set[readerID]
	return ok
}

// GuardianReadKey builds the composite per-student read marker.
func GuardianReadKey(guardianID, studentID string) string {
	return guardianID + "_forStudent_" + studentID
}

// Assignment links

type StudentAssignment struct {
	ID        string `json:"id,omitempty"`
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId"`
	SectionID string `json:"sectionId"`
}

type TeacherAssignment struct {
	ID              string `json:"id,omitempty"`
	TeacherID       string `json:"teacherId,omitempty"`
	TeacherUsername string `json:"teacherUsername,omitempty"`
	Teacher         string `json:"teacher,omitempty"` // legacy username
	SectionID       string `json:"sectionId,omitempty"`
	Section         string `json:"section,omitempty"` // legacy
	CourseID        string `json:"courseId,omitempty"`
	Course          string `json:"course,omitempty"` // legacy
	Subject         string `json:"subject,omitempty"`
}

func (ta TeacherAssignment) BelongsTo(v Viewer) bool {
	return v.Matches(ta.TeacherID) || v.Matches(ta.TeacherUsername) || v.Matches(ta.Teacher)
}

func (ta TeacherAssignment) ResolvedSectionID() string {
	if ta.SectionID != "" {
		return ta.SectionID
	}
	return ta.Section
}

func (ta TeacherAssignment) ResolvedCourseID() string {
	if ta.CourseID != "" {
		return ta.CourseID
	}
	return ta.Course
}

type GuardianRelation struct {
	GuardianID       string `json:"guardianId,omitempty"`
	GuardianUsername string `json:"guardianUsername,omitempty"`
	StudentID        string `json:"studentId" validate:"required"`
}

// GuardianRosterEntry is the per-year bulk-loaded guardian record.
type GuardianRosterEntry struct {
	ID         string   `json:"id,omitempty"`
	Username   string   `json:"username,omitempty"`
	StudentIDs []string `json:"studentIds,omitempty"`
}

type Section struct {
	ID       string `json:"id" validate:"required"`
	CourseID string `json:"courseId,omitempty"`
	Name     string `json:"name,omitempty"`
}

// User is the stored user record. Only the fields the engine consults are
// modeled; credential data is managed elsewhere.
type User struct {
	ID            string   `json:"id" validate:"required"`
	Username      string   `json:"username"`
	DisplayName   string   `json:"displayName,omitempty"`
	Role          Role     `json:"role"`
	ActiveCourses []string `json:"activeCourses,omitempty"` // legacy membership fallback
	StudentIDs    []string `json:"studentIds,omitempty"`    // legacy guardian fallback
	CourseID      string   `json:"courseId,omitempty"`      // legacy student placement
	SectionID     string   `json:"sectionId,omitempty"`
	SectionName   string   `json:"sectionName,omitempty"`
}

type PasswordRequest struct {
	ID        string    `json:"id"`
	Username  string    `json:"username" validate:"required"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (pr PasswordRequest) Pending() bool {
	return pr.Status == RequestPending
}

// Calendar is the per-year admin calendar controlling which dates require
// attendance.
type Calendar struct {
	ShowWeekends bool      `json:"showWeekends"`
	Holidays     []string  `json:"holidays,omitempty"` // YYYY-MM-DD
	Summer       DateRange `json:"summer"`
	Winter       DateRange `json:"winter"`
}

func DefaultCalendar() Calendar {
	return Calendar{ShowWeekends: true}
}

// InstructionalDay reports whether attendance is expected on the given date.
// Weekends only block attendance when the calendar is configured to show them.
func (c Calendar) InstructionalDay(t time.Time) bool {
	if c.ShowWeekends && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
		return false
	}
	ymd := t.Format(DateLayout)
	for _, h := range c.Holidays {
		if h == ymd {
			return false
		}
	}
	if c.Summer.Contains(t) || c.Winter.Contains(t) {
		return false
	}
	return true
}

type DateRange struct {
	Start string `json:"start,omitempty"` // YYYY-MM-DD
	End   string `json:"end,omitempty"`
}

// DateLayout is the wire format of all calendar/attendance dates.
const DateLayout = "2006-01-02"

func (r DateRange) Contains(t time.Time) bool {
	if r.Start == "" || r.End == "" {
		return false
	}
	start, err := time.ParseInLocation(DateLayout, r.Start, t.Location())
	if err != nil {
		return false
	}
	end, err := time.ParseInLocation(DateLayout, r.End, t.Location())
	if err != nil {
		return false
	}
	if end.Before(start) {
		start, end = end, start
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return !day.Before(start) && !day.After(end)
}
