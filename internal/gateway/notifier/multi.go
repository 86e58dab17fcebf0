package notifier

import (
	"errors"

	"rangebreak/internal/logger"
)

// Multi fans one message out to several sinks. A failing sink is logged and
// does not stop delivery to the others.
type Multi struct {
	sinks []TextNotifier
}

func NewMulti(sinks ...TextNotifier) *Multi {
	kept := make([]TextNotifier, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Multi{sinks: kept}
}

func (m *Multi) SendText(text string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.SendText(text); err != nil {
			logger.Warnf("notifier: delivery failed: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
