package domain

// Ledger maps question IDs to the currently selected option. Entries are
// only ever added or overwritten.
type Ledger struct {
	answers map[string]string
}

func NewLedger() *Ledger {
	return &Ledger{answers: make(map[string]string)}
}

// Set records option as the answer to questionID, replacing any prior choice.
func (l *Ledger) Set(questionID, option string) {
	if l.answers == nil {
		l.answers = make(map[string]string)
	}
	l.answers[questionID] = option
}

func (l *Ledger) Get(questionID string) (string, bool) {
	option, ok := l.answers[questionID]
	return option, ok
}

func (l *Ledger) Count() int {
	return len(l.answers)
}

// Map returns a copy of the ledger.
func (l *Ledger) Map() map[string]string {
	out := make(map[string]string, len(l.answers))
	for k, v := range l.answers {
		out[k] = v
	}
	return out
}
