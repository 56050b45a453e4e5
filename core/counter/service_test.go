package counter

import (
	"testing"

	"github.com/trezcool/arifa/core/school"
	"github.com/trezcool/arifa/core/syncbus"
)

func Test_Service_Watch(t *testing.T) {
	alice := school.Viewer{ID: "s1", Username: "alice", Role: school.RoleStudent}

	svc := newTestService(t, map[string]interface{}{
		school.KeyUsers: []school.User{{ID: "s1", Username: "alice", Role: school.RoleStudent}},
		school.KeyTasks: []school.Task{
			{ID: "taskA", AssignedTo: school.AssignStudent, AssignedStudentIDs: []string{"s1"}, AssignedBy: "prof"},
		},
	})

	var got []syncbus.Event
	svc.bus.Subscribe(syncbus.TopicCountsChanged, func(evt syncbus.Event) {
		got = append(got, evt)
	})

	unsub := svc.Watch(alice)

	svc.bus.Publish(syncbus.Event{Topic: syncbus.TopicTasksChanged})
	if len(got) != 1 {
		t.Fatalf("got %d counts-changed events; want 1", len(got))
	}
	if got[0].Viewer != "alice" || got[0].Category != "tasks" || got[0].Total != 1 {
		t.Errorf("unexpected event: %+v", got[0])
	}

	// cross-context storage mutation on a known key
	svc.bus.Publish(syncbus.Event{Topic: syncbus.TopicStorageMutated, Key: school.KeyTaskComments})
	if len(got) != 2 {
		t.Fatalf("got %d counts-changed events; want 2", len(got))
	}
	if got[1].Category != "comments" {
		t.Errorf("category = %q; want comments", got[1].Category)
	}

	// unrelated keys are ignored
	svc.bus.Publish(syncbus.Event{Topic: syncbus.TopicStorageMutated, Key: "some-other-apps-key"})
	if len(got) != 2 {
		t.Errorf("got %d counts-changed events after unrelated mutation; want 2", len(got))
	}

	unsub()
	svc.bus.Publish(syncbus.Event{Topic: syncbus.TopicTasksChanged})
	if len(got) != 2 {
		t.Errorf("watcher still firing after unsubscribe")
	}
}

func Test_keyCategory(t *testing.T) {
	tests := []struct {
		key      string
		category string
		ok       bool
	}{
		{key: school.KeyTasks, category: "tasks", ok: true},
		{key: school.KeyTaskComments, category: "comments", ok: true},
		{key: school.KeyTaskNotifications, category: "notifications", ok: true},
		{key: school.KeyAttendance, category: "attendance", ok: true},
		{key: school.KeyAttendancePendingYTD, category: "attendance", ok: true},
		{key: school.KeyCommunications, category: "communications", ok: true},
		{key: school.KeyPasswordRequests, category: "password-requests", ok: true},
		{key: school.KeyUsers, category: "users", ok: true},
		{key: school.YearKey(school.KeyStudentAssignments, 2026), category: "assignments", ok: true},
		{key: school.KeyTeacherAssignments, category: "assignments", ok: true},
		{key: school.YearKey(school.KeyGuardiansRoster, 2026), category: "assignments", ok: true},
		{key: school.YearKey(school.KeyCalendar, 2026), category: "attendance", ok: true},
		{key: "not-ours", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			category, ok := keyCategory(tt.key)
			if ok != tt.ok || category != tt.category {
				t.Errorf("keyCategory(%q) = (%q, %v); want (%q, %v)", tt.key, category, ok, tt.category, tt.ok)
			}
		})
	}
}
