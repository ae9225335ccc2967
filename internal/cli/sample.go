package cli

import "quiz-portal-client/internal/domain"

// sampleQuizzes is the development data set served when no database is
// configured and loaded into postgres by serve --seed.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			Info: domain.QuizInfo{
				ID:               "quiz-1",
				Title:            "Warm-up Arithmetic",
				TimeLimitMinutes: 2,
				Club:             domain.Club{Name: "Math Club"},
			},
			Status:          domain.QuizStatusActive,
			AssignedClasses: domain.AllClasses,
			Questions: []domain.Question{
				{ID: "q1", Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}},
				{ID: "q2", Text: "What is 7 * 6?", Options: []string{"36", "42", "48", "54"}},
				{ID: "q3", Text: "What is 81 / 9?", Options: []string{"8", "9"}},
			},
			Key: map[string]domain.AnswerKey{
				"q1": {Correct: "4"},
				"q2": {Correct: "42", Explanation: "Seven sixes make forty-two."},
				"q3": {Correct: "9"},
			},
		},
		{
			Info: domain.QuizInfo{
				ID:               "quiz-2",
				Title:            "Planets",
				TimeLimitMinutes: 3,
				Club:             domain.Club{Name: "Science Club"},
			},
			Status:          domain.QuizStatusActive,
			AssignedClasses: "Seven, Eight",
			Questions: []domain.Question{
				{ID: "p1", Text: "Which planet is closest to the Sun?", Options: []string{"Venus", "Mercury", "Mars"}},
				{ID: "p2", Text: "Which planet has the most prominent rings?", Options: []string{"Saturn", "Jupiter", "Neptune", "Uranus"}},
			},
			Key: map[string]domain.AnswerKey{
				"p1": {Correct: "Mercury"},
				"p2": {Correct: "Saturn"},
			},
		},
	}
}

func sampleParticipants() []domain.Participant {
	return []domain.Participant{
		{ID: 1, ClassName: "Eight", Roll: "1", Name: "Alice", PIN: "1111"},
		{ID: 2, ClassName: "Eight", Roll: "2", Name: "Bob", PIN: "2222"},
		{ID: 3, ClassName: "Six", Roll: "1", Name: "Chandra", PIN: "3333"},
	}
}
