package school

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/arifa/core"
)

// Persisted collection keys. The names are the wire contract shared with every
// other collaborator mutating the store; they must not change.
const (
	KeyTasks                = "smart-student-tasks"
	KeyTaskComments         = "smart-student-task-comments"
	KeyTaskNotifications    = "smart-student-task-notifications"
	KeyAttendance           = "smart-student-attendance"
	KeyCommunications       = "smart-student-communications"
	KeyPasswordRequests     = "password-reset-requests"
	KeyStudentAssignments   = "smart-student-student-assignments"
	KeyTeacherAssignments   = "smart-student-teacher-assignments"
	KeyGuardianRelations    = "smart-student-guardian-student-relations"
	KeyGuardiansRoster      = "smart-student-guardians" // per-year only
	KeyUsers                = "smart-student-users"
	KeySections             = "smart-student-sections"
	KeyCalendar             = "admin-calendar" // per-year only
	KeyAttendancePendingYTD = "smart-student-attendance-pending-total"
)

// ErrMalformed indicates a stored collection could not be parsed; callers
// treat the collection as empty for the current pass and must not write it
// back.
var ErrMalformed = errors.New("malformed stored collection")

// Repository wraps the flat KV store with typed per-collection accessors.
// Records missing required identity fields are quarantined (skipped) at decode
// time; a collection that fails to parse entirely is reported as ErrMalformed
// and treated as empty.
type Repository struct {
	kv  core.KV
	log core.Logger
}

func NewRepository(kv core.KV, log core.Logger) *Repository {
	return &Repository{kv: kv, log: log}
}

func YearKey(key string, year int) string {
	return fmt.Sprintf("%s-%d", key, year)
}

// load decodes the JSON array stored under key, passing each raw element to
// keep. Returns whether the key exists at all.
func (repo *Repository) load(key string, keep func(raw json.RawMessage)) (bool, error) {
	data, err := repo.kv.Get(key)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return false, nil
		}
		repo.log.Error(fmt.Sprintf("reading collection %q", key), err)
		return false, ErrMalformed
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		repo.log.Warn(fmt.Sprintf("collection %q is not a JSON array; treating as empty", key), err)
		return true, ErrMalformed
	}
	for _, e := range elems {
		keep(e)
	}
	return true, nil
}

// decode unmarshals one record and validates its required fields; records
// failing either are quarantined.
func (repo *Repository) decode(key string, raw json.RawMessage, out interface{}) bool {
	if err := json.Unmarshal(raw, out); err != nil {
		repo.log.Warn(fmt.Sprintf("quarantining unreadable record in %q", key), err)
		return false
	}
	if err := core.Validate.Struct(out); err != nil {
		repo.log.Warn(fmt.Sprintf("quarantining invalid record in %q", key), err)
		return false
	}
	return true
}

func (repo *Repository) save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return pkgerrors.Wrapf(err, "encoding collection %q", key)
	}
	return pkgerrors.Wrapf(repo.kv.Set(key, data), "writing collection %q", key)
}

func (repo *Repository) Tasks() ([]Task, error) {
	var out []Task
	_, err := repo.load(KeyTasks, func(raw json.RawMessage) {
		var t Task
		if repo.decode(KeyTasks, raw, &t) {
			out = append(out, t)
		}
	})
	return out, err
}

func (repo *Repository) Comments() ([]Comment, error) {
	var out []Comment
	_, err := repo.load(KeyTaskComments, func(raw json.RawMessage) {
		var c Comment
		if repo.decode(KeyTaskComments, raw, &c) {
			out = append(out, c)
		}
	})
	return out, err
}

func (repo *Repository) SaveComments(comments []Comment) error {
	if comments == nil {
		comments = []Comment{}
	}
	return repo.save(KeyTaskComments, comments)
}

func (repo *Repository) Notifications() ([]Notification, error) {
	var out []Notification
	_, err := repo.load(KeyTaskNotifications, func(raw json.RawMessage) {
		var n Notification
		if repo.decode(KeyTaskNotifications, raw, &n) {
			out = append(out, n)
		}
	})
	return out, err
}

func (repo *Repository) SaveNotifications(notifs []Notification) error {
	if notifs == nil {
		notifs = []Notification{}
	}
	return repo.save(KeyTaskNotifications, notifs)
}

func (repo *Repository) Attendance() ([]AttendanceRecord, error) {
	var out []AttendanceRecord
	_, err := repo.load(KeyAttendance, func(raw json.RawMessage) {
		var r AttendanceRecord
		if repo.decode(KeyAttendance, raw, &r) {
			out = append(out, r)
		}
	})
	return out, err
}

func (repo *Repository) Communications() ([]Communication, error) {
	var out []Communication
	_, err := repo.load(KeyCommunications, func(raw json.RawMessage) {
		var c Communication
		if repo.decode(KeyCommunications, raw, &c) {
			out = append(out, c)
		}
	})
	return out, err
}

func (repo *Repository) PasswordRequests() ([]PasswordRequest, error) {
	var out []PasswordRequest
	_, err := repo.load(KeyPasswordRequests, func(raw json.RawMessage) {
		var pr PasswordRequest
		if repo.decode(KeyPasswordRequests, raw, &pr) {
			out = append(out, pr)
		}
	})
	return out, err
}

func (repo *Repository) Users() ([]User, error) {
	var out []User
	_, err := repo.load(KeyUsers, func(raw json.RawMessage) {
		var u User
		if repo.decode(KeyUsers, raw, &u) {
			out = append(out, u)
		}
	})
	return out, err
}

func (repo *Repository) Sections() ([]Section, error) {
	var out []Section
	_, err := repo.load(KeySections, func(raw json.RawMessage) {
		var s Section
		if repo.decode(KeySections, raw, &s) {
			out = append(out, s)
		}
	})
	return out, err
}

// StudentAssignments reads the year-scoped collection, falling back to the
// legacy un-scoped key when the scoped one was never written.
func (repo *Repository) StudentAssignments(year int) ([]StudentAssignment, error) {
	var out []StudentAssignment
	keep := func(key string) func(json.RawMessage) {
		return func(raw json.RawMessage) {
			var sa StudentAssignment
			if repo.decode(key, raw, &sa) {
				out = append(out, sa)
			}
		}
	}
	yearKey := YearKey(KeyStudentAssignments, year)
	found, err := repo.load(yearKey, keep(yearKey))
	if found || err != nil {
		return out, err
	}
	_, err = repo.load(KeyStudentAssignments, keep(KeyStudentAssignments))
	return out, err
}

func (repo *Repository) TeacherAssignments(year int) ([]TeacherAssignment, error) {
	var out []TeacherAssignment
	keep := func(key string) func(json.RawMessage) {
		return func(raw json.RawMessage) {
			var ta TeacherAssignment
			if repo.decode(key, raw, &ta) {
				out = append(out, ta)
			}
		}
	}
	yearKey := YearKey(KeyTeacherAssignments, year)
	found, err := repo.load(yearKey, keep(yearKey))
	if found || err != nil {
		return out, err
	}
	_, err = repo.load(KeyTeacherAssignments, keep(KeyTeacherAssignments))
	return out, err
}

func (repo *Repository) GuardianRelations(year int) ([]GuardianRelation, error) {
	var out []GuardianRelation
	keep := func(key string) func(json.RawMessage) {
		return func(raw json.RawMessage) {
			var gr GuardianRelation
			if repo.decode(key, raw, &gr) {
				out = append(out, gr)
			}
		}
	}
	yearKey := YearKey(KeyGuardianRelations, year)
	found, err := repo.load(yearKey, keep(yearKey))
	if (found && len(out) > 0) || err != nil {
		return out, err
	}
	out = nil
	_, err = repo.load(KeyGuardianRelations, keep(KeyGuardianRelations))
	return out, err
}

func (repo *Repository) GuardiansRoster(year int) ([]GuardianRosterEntry, error) {
	var out []GuardianRosterEntry
	key := YearKey(KeyGuardiansRoster, year)
	_, err := repo.load(key, func(raw json.RawMessage) {
		var g GuardianRosterEntry
		if repo.decode(key, raw, &g) {
			out = append(out, g)
		}
	})
	return out, err
}

// Calendar reads the per-year admin calendar. The value is sometimes
// double-encoded (a JSON string containing JSON) by legacy writers; both
// shapes are accepted. Missing or unreadable calendars fall back to the
// default.
func (repo *Repository) Calendar(year int) Calendar {
	cal := DefaultCalendar()
	data, err := repo.kv.Get(YearKey(KeyCalendar, year))
	if err != nil {
		return cal
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = []byte(s)
	}
	if err := json.Unmarshal(data, &cal); err != nil {
		repo.log.Warn(fmt.Sprintf("unreadable calendar for %d; using default", year), err)
		return DefaultCalendar()
	}
	return cal
}

// AttendancePendingYTD reads the teacher's cached year-to-date
// pending-attendance total. The scalar is refreshed by an external
// collaborator; it may be stored as a bare number or a quoted string.
func (repo *Repository) AttendancePendingYTD() int {
	data, err := repo.kv.Get(KeyAttendancePendingYTD)
	if err != nil {
		return 0
	}
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
