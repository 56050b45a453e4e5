package counter

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/arifa/core/school"
)

// Repair removes orphaned and duplicated comment and notification records from
// the store. The pass is conservative: a collection that cannot be parsed is
// left untouched, and a collection is only written back when the pass actually
// removed something. Running it repeatedly is a no-op after the first pass.
func (svc *Service) Repair() error {
	tasks, err := svc.repo.Tasks()
	if err != nil {
		if errors.Is(err, school.ErrMalformed) {
			svc.log.Warn("task collection unreadable; skipping repair pass")
			return nil
		}
		return err
	}
	taskIDs := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		taskIDs[t.ID] = struct{}{}
	}

	if err := svc.repairComments(taskIDs); err != nil {
		return err
	}
	return svc.repairNotifications(taskIDs)
}

func (svc *Service) repairComments(taskIDs map[string]struct{}) error {
	comments, err := svc.repo.Comments()
	if err != nil {
		if errors.Is(err, school.ErrMalformed) {
			return nil
		}
		return err
	}

	seen := make(map[string]struct{}, len(comments))
	kept := make([]school.Comment, 0, len(comments))
	for _, c := range comments {
		if _, alive := taskIDs[c.TaskID]; !alive {
			continue
		}
		key := strings.Join([]string{
			c.TaskID,
			c.StudentUsername,
			c.Text,
			c.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.FormatBool(c.IsSubmission),
		}, keySep)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}

	if len(kept) == len(comments) {
		return nil
	}
	svc.log.Info("repair: removing comment records", "removed", len(comments)-len(kept))
	return svc.repo.SaveComments(kept)
}

func (svc *Service) repairNotifications(taskIDs map[string]struct{}) error {
	notifs, err := svc.repo.Notifications()
	if err != nil {
		if errors.Is(err, school.ErrMalformed) {
			return nil
		}
		return err
	}

	seen := make(map[string]struct{}, len(notifs))
	kept := make([]school.Notification, 0, len(notifs))
	for _, n := range notifs {
		if _, alive := taskIDs[n.TaskID]; !alive {
			continue
		}
		key := strings.Join([]string{
			n.Type,
			n.TaskID,
			n.FromUsername,
			strings.Join(n.TargetUsernames, ","),
		}, keySep)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, n)
	}

	if len(kept) == len(notifs) {
		return nil
	}
	svc.log.Info("repair: removing notification records", "removed", len(notifs)-len(kept))
	return svc.repo.SaveNotifications(kept)
}
