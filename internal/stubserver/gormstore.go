package stubserver

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore is the database-backed Store used by the stubserver binary.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates the stub schema.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&TestRecord{},
		&QuestionRecord{},
		&TopicRecord{},
		&AttemptRecord{},
		&SRSRow{},
	)
}

func (s *GormStore) FindActiveTests(testType, topicID, gradeLevel string) ([]TestRecord, error) {
	var tests []TestRecord
	query := s.db.Where("active = ?", true)
	if testType != "" {
		query = query.Where("test_type = ?", testType)
	}
	if topicID != "" {
		query = query.Where("topic = ?", topicID)
	}
	if gradeLevel != "" {
		query = query.Where("grade_level = ?", gradeLevel)
	}
	err := query.Order("name ASC").Find(&tests).Error
	return tests, err
}

func (s *GormStore) FindActiveTopics() ([]TopicRecord, error) {
	var topics []TopicRecord
	err := s.db.Where("active = ?", true).Order("name ASC").Find(&topics).Error
	return topics, err
}

func (s *GormStore) GetTest(name string) (*TestRecord, error) {
	var test TestRecord
	err := s.db.First(&test, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &test, err
}

func (s *GormStore) QuestionsForTest(testName string) ([]QuestionRecord, error) {
	var questions []QuestionRecord
	err := s.db.Where("test_name = ?", testName).Order("ordinal ASC").Find(&questions).Error
	return questions, err
}

func (s *GormStore) ActiveAttempt(testName, userEmail string) (*AttemptRecord, error) {
	var attempt AttemptRecord
	err := s.db.Where("test_name = ? AND user_email = ? AND status = ?", testName, userEmail, "in_progress").
		Order("created_at DESC").First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &attempt, err
}

func (s *GormStore) CreateAttempt(attempt *AttemptRecord) error {
	if attempt.Name == "" {
		var count int64
		if err := s.db.Model(&AttemptRecord{}).Count(&count).Error; err != nil {
			return err
		}
		attempt.Name = fmt.Sprintf("TA-%05d", count+1)
	}
	return s.db.Create(attempt).Error
}

func (s *GormStore) GetAttempt(name string) (*AttemptRecord, error) {
	var attempt AttemptRecord
	err := s.db.First(&attempt, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &attempt, err
}

func (s *GormStore) UpdateAttempt(attempt *AttemptRecord) error {
	return s.db.Save(attempt).Error
}

func (s *GormStore) AttemptsForTest(testName, userEmail string) ([]AttemptRecord, error) {
	var attempts []AttemptRecord
	err := s.db.Where("test_name = ? AND user_email = ?", testName, userEmail).
		Order("created_at DESC").Find(&attempts).Error
	return attempts, err
}

func (s *GormStore) SRSRows(userEmail string) ([]SRSRow, error) {
	var rows []SRSRow
	err := s.db.Where("user_email = ?", userEmail).Find(&rows).Error
	return rows, err
}
