package telegram

import (
	"sync"

	"essay-grader/api/internal/essay"
)

// session: состояние одного чата.
type session struct {
	mu      sync.Mutex
	classID string
	engine  string
	// последняя проверка, для кнопки "все ошибки"
	lastText   string
	lastResult *essay.GradingResult
}

type sessions struct {
	m sync.Map // chatID -> *session
}

func (s *sessions) get(chatID int64) *session {
	v, _ := s.m.LoadOrStore(chatID, &session{})
	return v.(*session)
}

func (s *session) snapshot() (classID, engine string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classID, s.engine
}

func (s *session) setClass(id string) {
	s.mu.Lock()
	s.classID = id
	s.mu.Unlock()
}

func (s *session) setEngine(name string) {
	s.mu.Lock()
	s.engine = name
	s.mu.Unlock()
}

func (s *session) remember(text string, res *essay.GradingResult) {
	s.mu.Lock()
	s.lastText, s.lastResult = text, res
	s.mu.Unlock()
}

func (s *session) last() (string, *essay.GradingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText, s.lastResult
}
