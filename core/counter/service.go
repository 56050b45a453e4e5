// Package counter computes, deduplicates and publishes per-role
// pending-attention counts from the flat collection store. All state is
// derived: every recomputation starts from the current store snapshot, which
// makes the engine idempotent and order-independent under concurrent mutation
// from other execution contexts.
package counter

import (
	"strings"
	"time"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/school"
	"github.com/trezcool/arifa/core/syncbus"
)

type Service struct {
	repo *school.Repository
	bus  *syncbus.Bus
	log  core.Logger

	mirrorWindow time.Duration
	nowFunc      func() time.Time // mockable
}

func NewService(repo *school.Repository, bus *syncbus.Bus, log core.Logger) *Service {
	return &Service{
		repo:         repo,
		bus:          bus,
		log:          log,
		mirrorWindow: core.Conf.Counter.MirrorWindow,
		nowFunc:      time.Now,
	}
}

// CounterSet computes the viewer's counts from the current store snapshot.
// Side-effect-free except for the lazy best-effort repair pass.
func (svc *Service) CounterSet(viewer school.Viewer) (CounterSet, error) {
	if err := svc.Repair(); err != nil {
		svc.log.Warn("repair pass failed; counting from current snapshot", err)
	}
	return svc.aggregate(svc.snapshot(), viewer), nil
}

// snapshot reads every collection the aggregation consults. Malformed
// collections are already logged by the repository and come back empty, so an
// error here never aborts a recomputation.
type snapshot struct {
	now time.Time

	tasks              []school.Task
	comments           []school.Comment
	notifs             []school.Notification
	attendance         []school.AttendanceRecord
	comms              []school.Communication
	requests           []school.PasswordRequest
	users              []school.User
	sections           []school.Section
	studentAssignments []school.StudentAssignment
	teacherAssignments []school.TeacherAssignment
	guardianRelations  []school.GuardianRelation
	guardiansRoster    []school.GuardianRosterEntry
	calendar           school.Calendar
	attendanceYTD      int
}

func (svc *Service) snapshot() *snapshot {
	now := svc.nowFunc()
	year := now.Year()

	s := &snapshot{now: now}
	s.tasks, _ = svc.repo.Tasks()
	s.comments, _ = svc.repo.Comments()
	s.notifs, _ = svc.repo.Notifications()
	s.attendance, _ = svc.repo.Attendance()
	s.comms, _ = svc.repo.Communications()
	s.requests, _ = svc.repo.PasswordRequests()
	s.users, _ = svc.repo.Users()
	s.sections, _ = svc.repo.Sections()
	s.studentAssignments, _ = svc.repo.StudentAssignments(year)
	s.teacherAssignments, _ = svc.repo.TeacherAssignments(year)
	s.guardianRelations, _ = svc.repo.GuardianRelations(year)
	s.guardiansRoster, _ = svc.repo.GuardiansRoster(year)
	s.calendar = svc.repo.Calendar(year)
	s.attendanceYTD = svc.repo.AttendancePendingYTD()
	return s
}

// recomputeTopics maps every consumed invalidation topic to the category
// reported on the resulting counts-changed event.
var recomputeTopics = map[syncbus.Topic]string{
	syncbus.TopicTasksChanged:            "tasks",
	syncbus.TopicCommentsChanged:         "comments",
	syncbus.TopicNotificationsChanged:    "notifications",
	syncbus.TopicAttendanceChanged:       "attendance",
	syncbus.TopicCommunicationsChanged:   "communications",
	syncbus.TopicUsersChanged:            "users",
	syncbus.TopicAssignmentsChanged:      "assignments",
	syncbus.TopicPasswordRequestsChanged: "password-requests",
	syncbus.TopicSubmissionGraded:        "grading",
	syncbus.TopicDialogClosed:            "read-state",
	syncbus.TopicRecountRequested:        "recount",
}

// Watch subscribes the viewer to every recompute trigger and publishes a
// counts-changed event after each recomputation. Handlers are cheap and
// idempotent; repeated triggers just repeat the same derivation.
func (svc *Service) Watch(viewer school.Viewer) (unsubscribe func()) {
	recompute := func(category string) {
		cs, err := svc.CounterSet(viewer)
		if err != nil {
			svc.log.Error("recomputing counts", err)
			return
		}
		svc.bus.Publish(syncbus.Event{
			Topic:    syncbus.TopicCountsChanged,
			Viewer:   viewer.Username,
			Category: category,
			Total:    cs.Total,
		})
	}

	unsubs := make([]func(), 0, len(recomputeTopics)+1)
	for topic, category := range recomputeTopics {
		category := category
		unsubs = append(unsubs, svc.bus.Subscribe(topic, func(syncbus.Event) {
			recompute(category)
		}))
	}
	unsubs = append(unsubs, svc.bus.Subscribe(syncbus.TopicStorageMutated, func(evt syncbus.Event) {
		if category, ok := keyCategory(evt.Key); ok {
			recompute(category)
		}
	}))

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// keyCategory maps a mutated storage key to a recompute category. Year-scoped
// keys match by prefix. Unknown keys are ignored.
func keyCategory(key string) (string, bool) {
	switch key {
	case school.KeyTasks:
		return "tasks", true
	case school.KeyTaskComments:
		return "comments", true
	case school.KeyTaskNotifications:
		return "notifications", true
	case school.KeyAttendance, school.KeySections, school.KeyAttendancePendingYTD:
		return "attendance", true
	case school.KeyCommunications:
		return "communications", true
	case school.KeyPasswordRequests:
		return "password-requests", true
	case school.KeyUsers:
		return "users", true
	}
	for _, prefix := range []string{
		school.KeyStudentAssignments,
		school.KeyTeacherAssignments,
		school.KeyGuardianRelations,
		school.KeyGuardiansRoster,
	} {
		if strings.HasPrefix(key, prefix) {
			return "assignments", true
		}
	}
	if strings.HasPrefix(key, school.KeyCalendar) {
		return "attendance", true
	}
	return "", false
}
