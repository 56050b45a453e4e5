package emailsvc

import (
	"fmt"
	"net/mail"
	"sync"

	"github.com/trezcool/arifa/core"
	"github.com/trezcool/arifa/core/syncbus"
)

// PasswordRequestAlert emails the configured admin address whenever the
// pending password-request backlog goes from zero to non-zero. Repeat
// counts-changed events at the same non-zero level do not re-alert.
type PasswordRequestAlert struct {
	svc core.EmailService
	to  mail.Address

	mu       sync.Mutex
	lastSent int
}

func NewPasswordRequestAlert(svc core.EmailService) *PasswordRequestAlert {
	return &PasswordRequestAlert{
		svc: svc,
		to:  mail.Address{Address: core.Conf.AdminAlertEmail},
	}
}

// Watch subscribes to counts-changed events and returns an unsubscribe func.
// Does nothing when no admin alert address is configured.
func (a *PasswordRequestAlert) Watch(bus *syncbus.Bus) (unsubscribe func()) {
	if a.to.Address == "" {
		return func() {}
	}
	return bus.Subscribe(syncbus.TopicCountsChanged, a.handle)
}

func (a *PasswordRequestAlert) handle(evt syncbus.Event) {
	if evt.Category != "password-requests" {
		return
	}

	a.mu.Lock()
	fire := evt.Total > 0 && a.lastSent == 0
	a.lastSent = evt.Total
	a.mu.Unlock()
	if !fire {
		return
	}

	a.svc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{a.to},
		Subject: "Pending password reset requests",
		BodyStr: fmt.Sprintf("There are %d password reset request(s) awaiting review.", evt.Total),
	})
}
