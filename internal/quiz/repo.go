package quiz

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("quiz not found")

type ListOpts struct {
	Q      string
	Limit  int
	Offset int
}

// Summary is the list view of a staged quiz.
type Summary struct {
	ID            string `json:"id"`
	Name          string `json:"quiz_name"`
	ModuleID      int64  `json:"moduleid,omitempty"`
	QuestionCount int    `json:"question_count"`
	CreatedAt     int64  `json:"created_at"`
}

// Store keeps quizzes staged for export until they are bundled into an
// archive.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) (Quiz, error)
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzes(ctx context.Context, opts ListOpts) ([]Summary, error)
	DeleteQuiz(ctx context.Context, id string) error
}

type memoryStore struct {
	mu      sync.RWMutex
	quizzes map[string]Quiz
}

func NewMemoryStore() Store {
	return &memoryStore{quizzes: map[string]Quiz{}}
}

func newID() string { return "quiz-" + uuid.NewString() }

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) (Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = newID()
	}
	if prev, ok := m.quizzes[q.ID]; ok {
		q.CreatedAt = prev.CreatedAt
	} else {
		q.CreatedAt = time.Now().Unix()
	}
	q.Questions = append([]Question(nil), q.Questions...)
	m.quizzes[q.ID] = q
	return q, nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrNotFound
	}
	q.Questions = append([]Question(nil), q.Questions...)
	return q, nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]Summary, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		if needle != "" && !strings.Contains(strings.ToLower(q.Name), needle) {
			continue
		}
		out = append(out, summarize(q))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts), nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return ErrNotFound
	}
	delete(m.quizzes, id)
	return nil
}

func summarize(q Quiz) Summary {
	return Summary{
		ID:            q.ID,
		Name:          q.Name,
		ModuleID:      q.ModuleID,
		QuestionCount: len(q.Questions),
		CreatedAt:     q.CreatedAt,
	}
}

func page(in []Summary, opts ListOpts) []Summary {
	if opts.Offset >= len(in) {
		return []Summary{}
	}
	in = in[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}
