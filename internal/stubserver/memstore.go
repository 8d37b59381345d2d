package stubserver

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is the seedable in-memory Store used by tests and local
// demos that run without a database.
type MemoryStore struct {
	mu       sync.Mutex
	tests    map[string]TestRecord
	question map[string][]QuestionRecord
	topics   map[string]TopicRecord
	attempts map[string]AttemptRecord
	srs      map[string][]SRSRow
	seq      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tests:    make(map[string]TestRecord),
		question: make(map[string][]QuestionRecord),
		topics:   make(map[string]TopicRecord),
		attempts: make(map[string]AttemptRecord),
		srs:      make(map[string][]SRSRow),
	}
}

// SeedTest registers a test with its questions.
func (s *MemoryStore) SeedTest(test TestRecord, questions []QuestionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !test.Active {
		test.Active = true
	}
	s.tests[test.Name] = test
	for i := range questions {
		questions[i].TestName = test.Name
	}
	s.question[test.Name] = questions
}

func (s *MemoryStore) SeedTopic(topic TopicRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !topic.Active {
		topic.Active = true
	}
	s.topics[topic.Name] = topic
}

func (s *MemoryStore) SeedSRS(userEmail string, rows []SRSRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.srs[userEmail] = rows
}

func (s *MemoryStore) FindActiveTests(testType, topicID, gradeLevel string) ([]TestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TestRecord
	for _, t := range s.tests {
		if !t.Active {
			continue
		}
		if testType != "" && t.TestType != testType {
			continue
		}
		if topicID != "" && t.Topic != topicID {
			continue
		}
		if gradeLevel != "" && t.GradeLevel != gradeLevel {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) FindActiveTopics() ([]TopicRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TopicRecord
	for _, t := range s.topics {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetTest(name string) (*TestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) QuestionsForTest(testName string) ([]QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := make([]QuestionRecord, len(s.question[testName]))
	copy(questions, s.question[testName])
	sort.Slice(questions, func(i, j int) bool { return questions[i].Ordinal < questions[j].Ordinal })
	return questions, nil
}

func (s *MemoryStore) ActiveAttempt(testName, userEmail string) (*AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.TestName == testName && a.UserEmail == userEmail && a.Status == "in_progress" {
			found := a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateAttempt(attempt *AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.Name == "" {
		s.seq++
		attempt.Name = fmt.Sprintf("TA-%05d", s.seq)
	}
	s.attempts[attempt.Name] = *attempt
	return nil
}

func (s *MemoryStore) GetAttempt(name string) (*AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) UpdateAttempt(attempt *AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.Name]; !ok {
		return ErrNotFound
	}
	s.attempts[attempt.Name] = *attempt
	return nil
}

func (s *MemoryStore) AttemptsForTest(testName, userEmail string) ([]AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AttemptRecord
	for _, a := range s.attempts {
		if a.TestName == testName && a.UserEmail == userEmail {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) SRSRows(userEmail string) ([]SRSRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]SRSRow, len(s.srs[userEmail]))
	copy(rows, s.srs[userEmail])
	return rows, nil
}
