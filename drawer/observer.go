package drawer

// Observer is notified after each successful state change. Implementations
// must not block; the engine calls them synchronously.
type Observer interface {
	SessionOpened(s Session)
	MovementRecorded(m Movement)
	MovementAmended(m Movement)
	SessionClosed(s Session, r Reconciliation)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) SessionOpened(Session)                 {}
func (NopObserver) MovementRecorded(Movement)             {}
func (NopObserver) MovementAmended(Movement)              {}
func (NopObserver) SessionClosed(Session, Reconciliation) {}
