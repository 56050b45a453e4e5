package main

import (
	"fmt"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/school"
)

func (cli *commandLine) repair() error {
	if err := cli.svc.Repair(); err != nil {
		return err
	}
	fmt.Println("repair pass complete")
	return nil
}

func (cli *commandLine) counts(viewer school.Viewer) error {
	viewer.ID = core.CleanString(viewer.ID)
	viewer.Username = core.CleanString(viewer.Username, true)
	viewer.Role = school.Role(core.CleanString(string(viewer.Role), true))

	switch viewer.Role {
	case school.RoleStudent, school.RoleTeacher, school.RoleGuardian, school.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", viewer.Role)
	}

	cs, err := cli.svc.CounterSet(viewer)
	if err != nil {
		return err
	}
	fmt.Printf("pending submissions:      %d\n", cs.PendingSubmissions)
	fmt.Printf("unread comments:          %d\n", cs.UnreadDiscussionComments)
	fmt.Printf("notifications:            %d\n", cs.SystemNotifications)
	fmt.Printf("pending attendance today: %d\n", cs.PendingAttendanceToday)
	fmt.Printf("unread communications:    %d\n", cs.UnreadCommunications)
	fmt.Printf("password requests:        %d\n", cs.PendingPasswordRequests)
	fmt.Printf("total:                    %d\n", cs.Total)
	return nil
}
