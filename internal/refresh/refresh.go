// Package refresh keeps an in-memory pricing engine snapshot in sync with
// the rules stored in the database.
package refresh

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/pricing"
	"github.com/tigearis/payroll-billing/internal/settings"
	"github.com/tigearis/payroll-billing/internal/store"
)

// Snapshot is one immutable engine build. Handlers read a snapshot once per
// request, so concurrent reloads never race with evaluation.
type Snapshot struct {
	Engine  *pricing.Engine
	Version uint64
	Built   time.Time
}

// Manager owns the current snapshot and rebuilds it from the database.
type Manager struct {
	db      *gorm.DB
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewManager constructs a Manager with an empty engine so Current never
// returns nil. Call Reload before serving traffic.
func NewManager(db *gorm.DB) *Manager {
	m := &Manager{db: db}
	m.current.Store(&Snapshot{
		Engine: pricing.NewEngine(pricing.NewRuleStore()),
		Built:  time.Now().UTC(),
	})
	return m
}

// Current returns the latest snapshot.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Reload rebuilds the engine from persisted rules and swaps it in.
func (m *Manager) Reload(ctx context.Context) error {
	ruleStore, decodeErrs := store.LoadRuleStore(m.db.WithContext(ctx))
	if ruleStore == nil && len(decodeErrs) > 0 {
		return decodeErrs[0]
	}
	for _, errDecode := range decodeErrs {
		log.WithError(errDecode).Warn("rule refresh: skipped undecodable rule")
	}

	next := &Snapshot{
		Engine:  pricing.NewEngine(ruleStore),
		Version: m.version.Add(1),
		Built:   time.Now().UTC(),
	}
	m.current.Store(next)
	log.Debugf("rule refresh: snapshot v%d with %d rules", next.Version, ruleStore.Len())
	return nil
}

// Start launches the periodic reload loop in a background goroutine.
func (m *Manager) Start(ctx context.Context) {
	if m == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go m.run(ctx)
	log.Infof("rule refresh started (interval=%s)", m.interval())
}

func (m *Manager) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		timer := time.NewTimer(m.interval())
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
		if errReload := m.Reload(ctx); errReload != nil {
			log.WithError(errReload).Warn("rule refresh: reload failed")
		}
	}
}

// interval reads the poll interval from DB-backed settings on every cycle
// so admins can tune it without a restart.
func (m *Manager) interval() time.Duration {
	seconds := settings.IntValue(settings.RulePollIntervalSecondsKey, settings.DefaultRulePollIntervalSeconds)
	if seconds <= 0 {
		seconds = settings.DefaultRulePollIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}
