package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/okovalenko/carebot/internal/store"
	"github.com/robfig/cron/v3"
)

// Control is an interactive affordance attached to an outbound message,
// rendered by the transport as a reply hint the user can send back.
type Control struct {
	Label string
	Data  string
}

// Messenger is the outbound transport the scheduler notifies through.
type Messenger interface {
	Send(channelID int64, text string, controls []Control) error
}

// Scheduler owns the in-memory job table: one-shot timers for reminders and
// daily cron entries for medications, keyed by definition id. The table is
// never persisted; Reconcile rebuilds it from the stores after a restart.
type Scheduler struct {
	reminders *store.ReminderStore
	meds      *store.MedicationStore
	sender    Messenger
	policy    FailurePolicy
	logger    *log.Logger

	mu      sync.Mutex
	timers  map[string]*reminderJob
	entries map[string]cron.EntryID
	cron    *cron.Cron

	now func() time.Time
}

type reminderJob struct {
	timer *time.Timer
}

// New creates a scheduler. Cron entries for medications fire in the given
// location.
func New(reminders *store.ReminderStore, meds *store.MedicationStore, sender Messenger, loc *time.Location, logger *log.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		meds:      meds,
		sender:    sender,
		policy:    DropPolicy{Logger: logger},
		logger:    logger,
		timers:    make(map[string]*reminderJob),
		entries:   make(map[string]cron.EntryID),
		cron:      cron.New(cron.WithLocation(loc)),
		now:       time.Now,
	}
}

// SetFailurePolicy replaces the send-failure policy. The default drops the
// failed firing after logging it.
func (s *Scheduler) SetFailurePolicy(p FailurePolicy) {
	s.policy = p
}

// Start begins the cron loop driving medication jobs. Reminder timers run
// independently of it.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop, waits for in-flight cron jobs to finish, and
// stops all pending reminder timers. A dispatch already executing on its own
// timer goroutine is allowed to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, j := range s.timers {
		j.timer.Stop()
		delete(s.timers, key)
	}
}

// ScheduleReminder installs (or replaces) the one-shot timer for a reminder.
// Fire times not strictly in the future are dropped: past-due reminders are
// never back-fired on load.
func (s *Scheduler) ScheduleReminder(id uint, remindAt time.Time) {
	key := reminderKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(key)

	now := s.now()
	if !remindAt.After(now) {
		return
	}

	j := &reminderJob{}
	j.timer = time.AfterFunc(remindAt.Sub(now), func() {
		s.fireReminder(id, j)
	})
	s.timers[key] = j
}

// ScheduleMedication installs (or replaces) the daily cron entry for a
// medication, firing at the given "HH:MM" wall-clock time.
func (s *Scheduler) ScheduleMedication(id uint, scheduleTime string) error {
	hour, minute, err := ParseClockTime(scheduleTime)
	if err != nil {
		return err
	}
	key := medicationKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(key)

	entryID, err := s.cron.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), func() {
		s.fireMedication(id)
	})
	if err != nil {
		return fmt.Errorf("schedule medication %d: %w", id, err)
	}
	s.entries[key] = entryID
	return nil
}

// CancelReminder removes the pending timer for a reminder. Calling it for an
// unknown id is a no-op.
func (s *Scheduler) CancelReminder(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(reminderKey(id))
}

// CancelMedication removes the cron entry for a medication. Calling it for
// an unknown id is a no-op.
func (s *Scheduler) CancelMedication(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(medicationKey(id))
}

// Reconcile rebuilds the job table from persisted state: every active
// reminder with a future fire time gets a timer, every active medication
// gets a cron entry. This is the sole recovery path after a restart.
func (s *Scheduler) Reconcile() error {
	reminders, err := s.reminders.ListAllActive()
	if err != nil {
		return fmt.Errorf("reconcile reminders: %w", err)
	}
	for _, r := range reminders {
		s.ScheduleReminder(r.ID, r.RemindAt)
	}

	meds, err := s.meds.ListAllActive()
	if err != nil {
		return fmt.Errorf("reconcile medications: %w", err)
	}
	for _, m := range meds {
		if err := s.ScheduleMedication(m.ID, m.ScheduleTime); err != nil {
			s.logger.Printf("scheduler: reconcile medication %d: %v", m.ID, err)
		}
	}

	s.logger.Printf("scheduler: reconciled %d reminders, %d medications", len(reminders), len(meds))
	return nil
}

// cancelLocked removes the job under key, stopping its timer or cron entry.
// Callers must hold s.mu.
func (s *Scheduler) cancelLocked(key string) {
	if j, ok := s.timers[key]; ok {
		j.timer.Stop()
		delete(s.timers, key)
	}
	if entryID, ok := s.entries[key]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, key)
	}
}

// removeJob drops the table entry for a fired timer, but only if it still
// points at that timer: a concurrent reschedule must not lose its new job.
func (s *Scheduler) removeJob(key string, j *reminderJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.timers[key]; ok && cur == j {
		delete(s.timers, key)
	}
}

func (s *Scheduler) hasJob(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, inTimers := s.timers[key]
	_, inEntries := s.entries[key]
	return inTimers || inEntries
}

func (s *Scheduler) jobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers) + len(s.entries)
}

func reminderKey(id uint) string {
	return fmt.Sprintf("reminder_%d", id)
}

func medicationKey(id uint) string {
	return fmt.Sprintf("med_%d", id)
}
