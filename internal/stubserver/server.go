package stubserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/dto"
)

const methodPrefix = "/api/method/elearning.elearning.doctype."

// Server is a gin implementation of the backend contract the client SDK
// talks to. It exists so the session engine can be exercised end-to-end
// without a full backend deployment; scoring and SRS scheduling stay out,
// it persists and echoes what the real server would.
type Server struct {
	store       Store
	bearerToken string
	userEmail   string
}

type Option func(*Server)

// WithBearerToken makes the server reject calls without this token.
func WithBearerToken(token string) Option {
	return func(s *Server) { s.bearerToken = token }
}

// WithUser sets the identity requests run as.
func WithUser(email string) Option {
	return func(s *Server) { s.userEmail = email }
}

func New(store Store, opts ...Option) *Server {
	s := &Server{store: store, userEmail: "student@example.com"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine builds the gin engine with all contract routes mounted.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(s.authenticate)

	r.GET(methodPrefix+"test_attempt.test_attempt.start_or_resume_test_attempt", s.startOrResume)
	r.PATCH(methodPrefix+"test_attempt.test_attempt.save_attempt_progress", s.saveProgress)
	r.POST(methodPrefix+"test_attempt.test_attempt.submit_test_attempt", s.submitAttempt)
	r.GET(methodPrefix+"test_attempt.test_attempt.get_test_attempt_status", s.attemptStatus)
	r.GET(methodPrefix+"test_attempt.test_attempt.get_user_attempts_for_test", s.userAttempts)
	r.GET(methodPrefix+"test_attempt.test_attempt.get_attempt_result_details", s.resultDetails)
	r.GET(methodPrefix+"test.test.get_test_details", s.testDetails)
	r.GET(methodPrefix+"test.test.find_all_active_tests", s.activeTests)
	r.GET(methodPrefix+"topics.topics.find_all_active_topics", s.activeTopics)
	r.GET(methodPrefix+"user_srs_progress.user_srs_progress.get_due_srs_summary", s.srsSummary)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("stubserver_request")
	}
}

func (s *Server) authenticate(c *gin.Context) {
	if s.bearerToken == "" {
		c.Next()
		return
	}
	if c.GetHeader("Authorization") != "Bearer "+s.bearerToken {
		failWith(c, http.StatusForbidden, "Not permitted")
		c.Abort()
		return
	}
	c.Next()
}

func ok(c *gin.Context, message interface{}) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func failWith(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"_error_message": message})
}

func (s *Server) startOrResume(c *gin.Context) {
	testID := c.Query("test_id")
	if testID == "" {
		failWith(c, http.StatusBadRequest, "test_id is required")
		return
	}

	test, err := s.store.GetTest(testID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			failWith(c, http.StatusNotFound, "Test not found: "+testID)
			return
		}
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	questions, err := s.store.QuestionsForTest(testID)
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}

	attempt, err := s.store.ActiveAttempt(testID, s.userEmail)
	if errors.Is(err, ErrNotFound) {
		attempt = &AttemptRecord{
			TestName:             testID,
			UserEmail:            s.userEmail,
			Status:               "in_progress",
			RemainingTimeSeconds: test.TimeLimitMinutes * 60,
			CreatedAt:            time.Now(),
		}
		if err := s.store.CreateAttempt(attempt); err != nil {
			failWith(c, http.StatusInternalServerError, err.Error())
			return
		}
	} else if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{
		"attempt": gin.H{
			"id":                      attempt.Name,
			"test_id":                 attempt.TestName,
			"status":                  attempt.Status,
			"remaining_time_seconds":  attempt.RemainingTimeSeconds,
			"last_viewed_question_id": attempt.LastViewedQuestionID,
		},
		"test":          testPayload(test),
		"questions":     questionPayloads(questions),
		"saved_answers": savedAnswers(attempt.ProgressData),
	})
}

func testPayload(test *TestRecord) gin.H {
	return gin.H{
		"id":                 test.Name,
		"name":               test.Name,
		"title":              test.Title,
		"topic":              test.Topic,
		"grade_level":        test.GradeLevel,
		"test_type":          test.TestType,
		"time_limit_minutes": test.TimeLimitMinutes,
		"instructions":       test.Instructions,
		"difficulty_level":   test.DifficultyLevel,
	}
}

func questionPayloads(questions []QuestionRecord) []gin.H {
	out := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		payload := gin.H{
			"question_id":             q.QuestionID,
			"test_question_detail_id": q.Name,
			"order":                   q.Ordinal,
			"question_type":           q.Type,
			"content":                 q.Content,
		}
		if q.OptionsRaw != "" {
			var options []map[string]interface{}
			if err := json.Unmarshal([]byte(q.OptionsRaw), &options); err == nil {
				payload["options"] = options
			}
		}
		out = append(out, payload)
	}
	return out
}

// savedAnswers converts the stored progress payload back into the
// saved_answers map the client expects on resume.
func savedAnswers(progressData string) map[string]interface{} {
	saved := map[string]interface{}{}
	if progressData == "" {
		return saved
	}
	var progress dto.ProgressPayload
	if err := json.Unmarshal([]byte(progressData), &progress); err != nil {
		log.Warn().Err(err).Msg("stubserver: stored progress data is not decodable")
		return saved
	}
	for detailID, entry := range progress.Answers {
		row := map[string]interface{}{
			"userAnswer":       entry.UserAnswer,
			"timeSpentSeconds": float64(entry.TimeSpent),
		}
		if len(entry.Base64Images) > 0 {
			row["base64_images"] = entry.Base64Images
		}
		saved[detailID] = row
	}
	return saved
}

func (s *Server) saveProgress(c *gin.Context) {
	var req dto.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, "invalid save payload: "+err.Error())
		return
	}
	if req.AttemptID == "" {
		failWith(c, http.StatusBadRequest, "attempt_id is required")
		return
	}

	attempt, err := s.store.GetAttempt(req.AttemptID)
	if err != nil {
		failWith(c, http.StatusNotFound, "Attempt not found: "+req.AttemptID)
		return
	}
	if attempt.Status != "in_progress" {
		failWith(c, http.StatusConflict, "Attempt is no longer in progress")
		return
	}

	var progress dto.ProgressPayload
	if err := json.Unmarshal([]byte(req.ProgressData), &progress); err != nil {
		failWith(c, http.StatusBadRequest, "invalid progress_data: "+err.Error())
		return
	}

	attempt.ProgressData = req.ProgressData
	attempt.RemainingTimeSeconds = progress.RemainingTimeSeconds
	attempt.LastViewedQuestionID = progress.LastViewedQuestionID
	attempt.UpdatedAt = time.Now()
	if err := s.store.UpdateAttempt(attempt); err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{"status": "saved"})
}

func (s *Server) submitAttempt(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, http.StatusBadRequest, "invalid submit payload: "+err.Error())
		return
	}
	if req.AttemptID == "" {
		failWith(c, http.StatusBadRequest, "attempt_id is required")
		return
	}

	attempt, err := s.store.GetAttempt(req.AttemptID)
	if err != nil {
		failWith(c, http.StatusNotFound, "Attempt not found: "+req.AttemptID)
		return
	}
	if attempt.Status != "in_progress" {
		failWith(c, http.StatusConflict, "Attempt already submitted")
		return
	}

	var submission dto.SubmissionPayload
	if err := json.Unmarshal([]byte(req.SubmissionData), &submission); err != nil {
		failWith(c, http.StatusBadRequest, "invalid submission_data: "+err.Error())
		return
	}

	attempt.SubmissionData = req.SubmissionData
	attempt.Status = "completed"
	attempt.RemainingTimeSeconds = submission.TimeLeft
	attempt.LastViewedQuestionID = submission.LastViewedQuestionID
	attempt.UpdatedAt = time.Now()
	if err := s.store.UpdateAttempt(attempt); err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{"attemptId": attempt.Name})
}

func (s *Server) attemptStatus(c *gin.Context) {
	testID := c.Query("test_id")
	if testID == "" {
		failWith(c, http.StatusBadRequest, "test_id is required")
		return
	}
	if _, err := s.store.ActiveAttempt(testID, s.userEmail); err == nil {
		ok(c, gin.H{"status": "in_progress"})
		return
	}
	attempts, err := s.store.AttemptsForTest(testID, s.userEmail)
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	if len(attempts) > 0 {
		ok(c, gin.H{"status": "completed"})
		return
	}
	ok(c, gin.H{"status": "not_started"})
}

func (s *Server) userAttempts(c *gin.Context) {
	testID := c.Query("test_id")
	if testID == "" {
		failWith(c, http.StatusBadRequest, "test_id is required")
		return
	}
	attempts, err := s.store.AttemptsForTest(testID, s.userEmail)
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	rows := make([]gin.H, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, gin.H{
			"id":          a.Name,
			"status":      a.Status,
			"final_score": a.FinalScore,
			"start_time":  a.CreatedAt.Format(time.RFC3339),
			"end_time":    a.UpdatedAt.Format(time.RFC3339),
		})
	}
	ok(c, rows)
}

func (s *Server) resultDetails(c *gin.Context) {
	attemptID := c.Query("attempt_id")
	if attemptID == "" {
		failWith(c, http.StatusBadRequest, "attempt_id is required")
		return
	}
	attempt, err := s.store.GetAttempt(attemptID)
	if err != nil {
		failWith(c, http.StatusNotFound, "Attempt not found: "+attemptID)
		return
	}
	test, err := s.store.GetTest(attempt.TestName)
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	questions, err := s.store.QuestionsForTest(attempt.TestName)
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}

	data := attempt.SubmissionData
	if data == "" {
		data = attempt.ProgressData
	}
	var submission dto.SubmissionPayload
	if data != "" {
		if err := json.Unmarshal([]byte(data), &submission); err != nil {
			log.Warn().Err(err).Str("attempt", attemptID).Msg("stubserver: stored submission not decodable")
		}
	}

	rows := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		row := gin.H{
			"question_id":             q.QuestionID,
			"test_question_detail_id": q.Name,
			"content":                 q.Content,
			"question_type":           q.Type,
		}
		if entry, found := submission.Answers[q.Name]; found {
			row["user_answer"] = entry.UserAnswer
			row["time_spent"] = entry.TimeSpent
		}
		rows = append(rows, row)
	}

	ok(c, gin.H{
		"attempt": gin.H{
			"id":                     attempt.Name,
			"test_id":                attempt.TestName,
			"status":                 attempt.Status,
			"remaining_time_seconds": attempt.RemainingTimeSeconds,
		},
		"test":              testPayload(test),
		"questions_answers": rows,
	})
}

func (s *Server) testDetails(c *gin.Context) {
	testID := c.Query("test_id")
	if testID == "" {
		failWith(c, http.StatusBadRequest, "test_id is required")
		return
	}
	test, err := s.store.GetTest(testID)
	if err != nil {
		failWith(c, http.StatusNotFound, "Test not found: "+testID)
		return
	}
	questions, err := s.store.QuestionsForTest(testID)
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	payload := testPayload(test)
	payload["question_count"] = len(questions)
	ok(c, payload)
}

func (s *Server) activeTests(c *gin.Context) {
	tests, err := s.store.FindActiveTests(c.Query("test_type"), c.Query("topic_id"), c.Query("grade_level"))
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	rows := make([]gin.H, 0, len(tests))
	for i := range tests {
		payload := testPayload(&tests[i])
		questions, qErr := s.store.QuestionsForTest(tests[i].Name)
		if qErr == nil {
			payload["question_count"] = len(questions)
		}
		rows = append(rows, payload)
	}
	ok(c, rows)
}

func (s *Server) activeTopics(c *gin.Context) {
	topics, err := s.store.FindActiveTopics()
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	rows := make([]gin.H, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, gin.H{
			"name":        t.Name,
			"topic_name":  t.TopicName,
			"description": t.Description,
			"grade_level": t.GradeLevel,
		})
	}
	ok(c, rows)
}

func (s *Server) srsSummary(c *gin.Context) {
	rows, err := s.store.SRSRows(s.userEmail)
	if err != nil {
		failWith(c, http.StatusInternalServerError, err.Error())
		return
	}
	due, upcoming, total := 0, 0, 0
	topics := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		due += r.DueCount
		upcoming += r.Upcoming
		total += r.Total
		if r.DueCount > 0 {
			topics = append(topics, gin.H{
				"topic_id":   r.TopicID,
				"topic_name": r.TopicName,
				"due_count":  r.DueCount,
			})
		}
	}
	ok(c, gin.H{
		"success":        true,
		"due_count":      due,
		"upcoming_count": upcoming,
		"total_count":    total,
		"topics":         topics,
	})
}
