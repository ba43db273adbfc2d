package services

import (
	"context"
	"fmt"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

// Unanswered marks a question with no selected option.
const Unanswered = -1

var QuizOptions = []string{"Never", "Rarely", "Sometimes", "Often", "Always"}

var QuizQuestions = []string{
	"How often do you feel overwhelmed by your academic workload?",
	"How frequently do you have trouble sleeping due to stress?",
	"How often do you feel anxious about exams or assignments?",
	"How frequently do you experience physical symptoms of stress (headaches, fatigue)?",
	"How often do you feel unable to cope with your responsibilities?",
}

// MaxQuizScore is every question answered with the last option.
var MaxQuizScore = len(QuizQuestions) * (len(QuizOptions) - 1)

type StressLevel string

const (
	StressLow      StressLevel = "Low"
	StressModerate StressLevel = "Moderate"
	StressHigh     StressLevel = "High"
	StressVeryHigh StressLevel = "Very High"
)

var stressSuggestions = map[StressLevel][]string{
	StressLow: {
		"Great job managing your stress! Keep up your healthy habits.",
		"Continue practicing relaxation techniques regularly.",
		"Maintain a balanced schedule with time for rest and activities you enjoy.",
	},
	StressModerate: {
		"Your stress levels are moderate. Consider implementing stress management techniques.",
		"Try our breathing exercises and relaxation methods.",
		"Ensure you're getting enough sleep and taking regular breaks.",
		"Connect with friends or family for support.",
	},
	StressHigh: {
		"Your stress levels are high. It's important to take action.",
		"Practice daily relaxation and breathing exercises.",
		"Consider reaching out to a counselor or therapist.",
		"Break large tasks into smaller, manageable steps.",
		"Prioritize self-care and set boundaries.",
	},
	StressVeryHigh: {
		"Your stress levels are very high. Please seek professional support.",
		"Visit our Helpline page for immediate resources.",
		"Talk to a mental health professional as soon as possible.",
		"Practice stress-relief techniques multiple times daily.",
		"Don't hesitate to ask for help from friends, family, or professionals.",
	},
}

// ScoreQuiz sums the answer indices. Every question must be answered.
func ScoreQuiz(answers []int) (int, error) {
	if len(answers) != len(QuizQuestions) {
		return 0, NewInvalidError("Please answer all questions")
	}
	score := 0
	for i, a := range answers {
		if a == Unanswered {
			return 0, NewInvalidError("Please answer all questions")
		}
		if a < 0 || a >= len(QuizOptions) {
			return 0, NewInvalidError(fmt.Sprintf("Invalid answer for question %d", i+1))
		}
		score += a
	}
	return score, nil
}

// LevelFor maps a score to its band: 0-5 Low, 6-10 Moderate, 11-15 High, above that Very High.
func LevelFor(score int) StressLevel {
	switch {
	case score <= 5:
		return StressLow
	case score <= 10:
		return StressModerate
	case score <= 15:
		return StressHigh
	default:
		return StressVeryHigh
	}
}

func SuggestionsFor(level StressLevel) []string {
	return append([]string(nil), stressSuggestions[level]...)
}

type QuizResult struct {
	Score       int          `json:"score"`
	Level       StressLevel  `json:"level"`
	Suggestions []string     `json:"suggestions"`
	Responses   []int        `json:"responses"`
	Timestamp   backend.Time `json:"timestamp,omitempty"`
}

func resultFor(score int, responses []int, at backend.Time) *QuizResult {
	level := LevelFor(score)
	return &QuizResult{
		Score:       score,
		Level:       level,
		Suggestions: SuggestionsFor(level),
		Responses:   responses,
		Timestamp:   at,
	}
}

type QuizStore interface {
	Caller() principal.Principal
	QuizResponse(ctx context.Context) (*backend.StressQuizResponse, error)
	SubmitStressQuiz(ctx context.Context, score uint64, responses []uint64) error
}

type QuizService struct {
	store QuizStore
}

func NewQuizService(store QuizStore) *QuizService {
	return &QuizService{store: store}
}

// Submit validates and scores answers before anything is sent.
func (s *QuizService) Submit(ctx context.Context, answers []int) (*QuizResult, error) {
	if !s.store.Caller().Authenticated() {
		return nil, NewUnauthorizedError("Please login to submit the quiz")
	}
	score, err := ScoreQuiz(answers)
	if err != nil {
		return nil, err
	}
	responses := make([]uint64, len(answers))
	for i, a := range answers {
		responses[i] = uint64(a)
	}
	if err := s.store.SubmitStressQuiz(ctx, uint64(score), responses); err != nil {
		return nil, err
	}
	return resultFor(score, append([]int(nil), answers...), 0), nil
}

// Previous returns the caller's stored response, or nil when there is none.
func (s *QuizService) Previous(ctx context.Context) (*QuizResult, error) {
	r, err := s.store.QuizResponse(ctx)
	if err != nil || r == nil {
		return nil, err
	}
	responses := make([]int, len(r.Responses))
	for i, v := range r.Responses {
		responses[i] = int(v)
	}
	return resultFor(int(r.Score), responses, r.Timestamp), nil
}
