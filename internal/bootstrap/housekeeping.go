package bootstrap

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/web"
)

// HousekeepingSpec runs every five minutes (seconds field first).
const HousekeepingSpec = "0 */5 * * * *"

// lockMaxAge bounds how long a crashed request can keep a bug locked.
const lockMaxAge = 2 * time.Minute

// Housekeeper drops per-session state of browsers that went away.
type Housekeeper struct {
	app   *web.App
	notes notify.Store
	idle  time.Duration
	cron  *cron.Cron
}

func NewHousekeeper(app *web.App, notes notify.Store, idle time.Duration) *Housekeeper {
	return &Housekeeper{app: app, notes: notes, idle: idle}
}

// Start schedules the sweep. Stop the returned scheduler on shutdown.
func (h *Housekeeper) Start() error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(HousekeepingSpec, func() { h.Sweep() }); err != nil {
		return err
	}
	h.cron = c
	c.Start()
	logging.New("housekeeping").Infof("scheduler started (%s, idle=%s)", HousekeepingSpec, h.idle)
	return nil
}

func (h *Housekeeper) Stop() {
	if h.cron != nil {
		<-h.cron.Stop().Done()
	}
}

// SweepResult counts what one sweep removed.
type SweepResult struct {
	Sessions      int
	Locks         int
	Notifications int
}

// Sweep prunes idle breadcrumb trails, stale locks and, for the in-memory
// store, empty notification scopes. Redis expires its own keys.
func (h *Housekeeper) Sweep() SweepResult {
	res := SweepResult{
		Sessions: h.app.Sessions().Prune(h.idle),
		Locks:    h.app.Locks().Prune(lockMaxAge),
	}
	if mem, ok := h.notes.(*notify.MemoryStore); ok {
		res.Notifications = mem.Prune(h.idle)
	}
	if res != (SweepResult{}) {
		logging.New("housekeeping").Infof("pruned sessions=%d locks=%d notification_scopes=%d",
			res.Sessions, res.Locks, res.Notifications)
	}
	return res
}
