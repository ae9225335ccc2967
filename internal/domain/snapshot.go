package domain

// Snapshot is the read-only view of a session handed to presentation
// adapters after every mutation and every clock tick.
type Snapshot struct {
	QuizID    string   `json:"quizId"`
	Title     string   `json:"title"`
	Question  Question `json:"currentQuestion"`
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Remaining int      `json:"remainingSeconds"`
	Fraction  float64  `json:"progressFraction"`
	Selected  *string  `json:"selectedOption"`
	// HasSelection is Selected != nil, spelled out for clients that cannot
	// tell null from absent.
	HasSelection bool    `json:"hasSelection"`
	Answered     int     `json:"answered"`
	Unanswered   int     `json:"unanswered"`
	State        State   `json:"state"`
	Forced       bool    `json:"forced,omitempty"`
	Result       *Result `json:"result,omitempty"`
	Err          string  `json:"error,omitempty"`
}

// Clone returns a deep copy so the receiver can be handed to another goroutine.
func (s Snapshot) Clone() Snapshot {
	s.Question = s.Question.clone()
	if s.Selected != nil {
		v := *s.Selected
		s.Selected = &v
	}
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}
