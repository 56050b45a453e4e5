package school

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"testing"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/storage/kv/inmem"
)

func newTestRepo(t *testing.T) (*Repository, core.KV) {
	t.Helper()
	kv := inmem.NewStore()
	logger := core.NewStdLogger(log.New(ioutil.Discard, "", 0))
	return NewRepository(kv, logger), kv
}

func seedJSON(t *testing.T, kv core.KV, key string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("seeding %q: %v", key, err)
	}
	if err := kv.Set(key, data); err != nil {
		t.Fatalf("seeding %q: %v", key, err)
	}
}

func TestRepository_missingKeyIsEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)
	tasks, err := repo.Tasks()
	if err != nil {
		t.Fatalf("Tasks() on empty store: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Tasks() = %d records; want 0", len(tasks))
	}
}

func TestRepository_malformedCollection(t *testing.T) {
	repo, kv := newTestRepo(t)
	if err := kv.Set(KeyTasks, []byte(`{"oops":"not an array"}`)); err != nil {
		t.Fatal(err)
	}

	tasks, err := repo.Tasks()
	if err != ErrMalformed {
		t.Errorf("Tasks() err = %v; want ErrMalformed", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Tasks() = %d records; want 0", len(tasks))
	}
}

func TestRepository_quarantinesInvalidRecords(t *testing.T) {
	repo, kv := newTestRepo(t)
	// the second record is missing its required id
	if err := kv.Set(KeyTasks, []byte(`[{"id":"t1"},{"title":"no id"},{"id":"t2"}]`)); err != nil {
		t.Fatal(err)
	}

	tasks, err := repo.Tasks()
	if err != nil {
		t.Fatalf("Tasks() failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Tasks() = %d records; want 2", len(tasks))
	}
}

func TestRepository_quarantinesUnreadableRecords(t *testing.T) {
	repo, kv := newTestRepo(t)
	if err := kv.Set(KeyTaskComments, []byte(`[{"taskId":"t1"},"not an object",{"taskId":"t2"}]`)); err != nil {
		t.Fatal(err)
	}

	comments, err := repo.Comments()
	if err != nil {
		t.Fatalf("Comments() failed: %v", err)
	}
	if len(comments) != 2 {
		t.Errorf("Comments() = %d records; want 2", len(comments))
	}
}

func TestRepository_yearScopedFallback(t *testing.T) {
	repo, kv := newTestRepo(t)
	seedJSON(t, kv, KeyStudentAssignments, []StudentAssignment{{StudentID: "s1"}})

	got, err := repo.StudentAssignments(2026)
	if err != nil {
		t.Fatalf("StudentAssignments() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("StudentAssignments() = %d records; want 1 from the legacy key", len(got))
	}

	// the year-scoped key takes over once present
	seedJSON(t, kv, YearKey(KeyStudentAssignments, 2026), []StudentAssignment{{StudentID: "s2"}, {StudentID: "s3"}})
	got, err = repo.StudentAssignments(2026)
	if err != nil {
		t.Fatalf("StudentAssignments() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("StudentAssignments() = %d records; want 2 from the year key", len(got))
	}
}

func TestRepository_guardianRelationsEmptyYearFallsBack(t *testing.T) {
	repo, kv := newTestRepo(t)
	seedJSON(t, kv, YearKey(KeyGuardianRelations, 2026), []GuardianRelation{})
	seedJSON(t, kv, KeyGuardianRelations, []GuardianRelation{{GuardianID: "g1", StudentID: "s1"}})

	got, err := repo.GuardianRelations(2026)
	if err != nil {
		t.Fatalf("GuardianRelations() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("GuardianRelations() = %d records; want 1 from the legacy key", len(got))
	}
}

func TestRepository_Calendar(t *testing.T) {
	repo, kv := newTestRepo(t)

	t.Run("missing returns default", func(t *testing.T) {
		cal := repo.Calendar(2026)
		if !cal.ShowWeekends {
			t.Error("default calendar should show weekends")
		}
	})

	t.Run("plain encoding", func(t *testing.T) {
		seedJSON(t, kv, YearKey(KeyCalendar, 2026), Calendar{ShowWeekends: false, Holidays: []string{"2026-03-04"}})
		cal := repo.Calendar(2026)
		if cal.ShowWeekends || len(cal.Holidays) != 1 {
			t.Errorf("Calendar() = %+v", cal)
		}
	})

	t.Run("double encoding", func(t *testing.T) {
		// some writers store the calendar as a JSON string containing JSON
		seedJSON(t, kv, YearKey(KeyCalendar, 2027), `{"showWeekends":false,"holidays":["2027-01-01"]}`)
		cal := repo.Calendar(2027)
		if cal.ShowWeekends || len(cal.Holidays) != 1 {
			t.Errorf("Calendar() = %+v", cal)
		}
	})

	t.Run("unreadable returns default", func(t *testing.T) {
		if err := kv.Set(YearKey(KeyCalendar, 2028), []byte(`what even is this`)); err != nil {
			t.Fatal(err)
		}
		cal := repo.Calendar(2028)
		if !cal.ShowWeekends {
			t.Error("unreadable calendar should fall back to default")
		}
	})
}

func TestRepository_AttendancePendingYTD(t *testing.T) {
	repo, kv := newTestRepo(t)

	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "bare number", value: `12`, want: 12},
		{name: "quoted number", value: `"7"`, want: 7},
		{name: "negative clamped", value: `-3`, want: 0},
		{name: "garbage", value: `"lots"`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := kv.Set(KeyAttendancePendingYTD, []byte(tt.value)); err != nil {
				t.Fatal(err)
			}
			if got := repo.AttendancePendingYTD(); got != tt.want {
				t.Errorf("AttendancePendingYTD() = %d; want %d", got, tt.want)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		if got := repo.AttendancePendingYTD(); got != 0 {
			t.Errorf("AttendancePendingYTD() = %d; want 0", got)
		}
	})
}

func TestRepository_SaveComments_writesEmptyArray(t *testing.T) {
	repo, kv := newTestRepo(t)
	if err := repo.SaveComments(nil); err != nil {
		t.Fatalf("SaveComments(nil) failed: %v", err)
	}
	data, err := kv.Get(KeyTaskComments)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("stored %q; want []", data)
	}
}
