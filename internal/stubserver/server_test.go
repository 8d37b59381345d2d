package stubserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/model"
)

func seededStore() *MemoryStore {
	store := NewMemoryStore()
	store.SeedTest(TestRecord{Name: "TEST-1", Title: "Practice", TestType: "Practice", TimeLimitMinutes: 10}, []QuestionRecord{
		{Name: "D1", QuestionID: "Q1", Ordinal: 1, Type: model.TypeMultipleChoice, OptionsRaw: `[{"id":"A","text":"one"}]`},
		{Name: "D2", QuestionID: "Q2", Ordinal: 2, Type: model.TypeShortAnswer},
	})
	store.SeedTopic(TopicRecord{Name: "TOPIC-1", TopicName: "Hình học"})
	store.SeedSRS("student@example.com", []SRSRow{
		{TopicID: "TOPIC-1", TopicName: "Hình học", DueCount: 2, Upcoming: 3, Total: 9},
		{TopicID: "TOPIC-2", TopicName: "Đại số", DueCount: 0, Upcoming: 1, Total: 4},
	})
	return store
}

func callJSON(t *testing.T, ts *httptest.Server, verb, method string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(verb, ts.URL+methodPrefix+method, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestStartOrResumeCreatesThenResumes(t *testing.T) {
	store := seededStore()
	ts := httptest.NewServer(New(store).Engine())
	defer ts.Close()

	resp, env := callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=TEST-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap dto.StartOrResumeDTO
	require.NoError(t, json.Unmarshal(env["message"], &snap))
	require.Empty(t, snap.MissingField(), "all four snapshot fields are present")
	assert.Equal(t, 600, snap.Attempt.RemainingTimeSeconds)
	assert.Len(t, snap.Questions, 2)
	assert.Equal(t, "D1", snap.Questions[0].DetailID)
	require.Len(t, snap.Questions[0].Options, 1)

	// Calling again resumes the same attempt instead of opening another.
	_, env = callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=TEST-1", nil)
	var again dto.StartOrResumeDTO
	require.NoError(t, json.Unmarshal(env["message"], &again))
	assert.Equal(t, snap.Attempt.ID, again.Attempt.ID)
}

func TestSaveThenResumeRoundTripsAnswers(t *testing.T) {
	store := seededStore()
	ts := httptest.NewServer(New(store).Engine())
	defer ts.Close()

	_, env := callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=TEST-1", nil)
	var snap dto.StartOrResumeDTO
	require.NoError(t, json.Unmarshal(env["message"], &snap))

	save, err := dto.NewSaveProgressRequest(snap.Attempt.ID, dto.ProgressPayload{
		Answers: map[string]model.AnswerEntry{
			"D1": {UserAnswer: "A", TimeSpent: 15},
		},
		RemainingTimeSeconds: 540,
		LastViewedQuestionID: "Q1",
	})
	require.NoError(t, err)
	resp, _ := callJSON(t, ts, http.MethodPatch, "test_attempt.test_attempt.save_attempt_progress", save)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env = callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=TEST-1", nil)
	var resumed dto.StartOrResumeDTO
	require.NoError(t, json.Unmarshal(env["message"], &resumed))

	assert.Equal(t, 540, resumed.Attempt.RemainingTimeSeconds)
	assert.Equal(t, "Q1", resumed.Attempt.LastViewedQuestionID)
	entry, ok := resumed.SavedAnswers["D1"]
	require.True(t, ok)
	assert.Equal(t, `"A"`, string(entry.UserAnswer))
	require.NotNil(t, entry.TimeSpentSeconds)
	assert.InDelta(t, 15, *entry.TimeSpentSeconds, 0.001)
}

func TestSubmitFinalizesOnce(t *testing.T) {
	store := seededStore()
	ts := httptest.NewServer(New(store).Engine())
	defer ts.Close()

	_, env := callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=TEST-1", nil)
	var snap dto.StartOrResumeDTO
	require.NoError(t, json.Unmarshal(env["message"], &snap))

	submit, err := dto.NewSubmitRequest(snap.Attempt.ID, dto.SubmissionPayload{
		Answers:  map[string]model.AnswerEntry{"D1": {UserAnswer: "A", TimeSpent: 20}},
		TimeLeft: 500,
	})
	require.NoError(t, err)

	resp, env := callJSON(t, ts, http.MethodPost, "test_attempt.test_attempt.submit_test_attempt", submit)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result dto.SubmitResponseDTO
	require.NoError(t, json.Unmarshal(env["message"], &result))
	assert.Equal(t, snap.Attempt.ID, result.AttemptID)

	// A second submit of the same attempt is refused.
	resp, env = callJSON(t, ts, http.MethodPost, "test_attempt.test_attempt.submit_test_attempt", submit)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, env["_error_message"])

	// And the status flips to completed.
	_, env = callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.get_test_attempt_status?test_id=TEST-1", nil)
	assert.JSONEq(t, `{"status":"completed"}`, string(env["message"]))
}

func TestAttemptStatusLifecycle(t *testing.T) {
	store := seededStore()
	ts := httptest.NewServer(New(store).Engine())
	defer ts.Close()

	_, env := callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.get_test_attempt_status?test_id=TEST-1", nil)
	assert.JSONEq(t, `{"status":"not_started"}`, string(env["message"]))

	callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=TEST-1", nil)
	_, env = callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.get_test_attempt_status?test_id=TEST-1", nil)
	assert.JSONEq(t, `{"status":"in_progress"}`, string(env["message"]))
}

func TestResultDetailsEchoesSubmission(t *testing.T) {
	store := seededStore()
	ts := httptest.NewServer(New(store).Engine())
	defer ts.Close()

	_, env := callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=TEST-1", nil)
	var snap dto.StartOrResumeDTO
	require.NoError(t, json.Unmarshal(env["message"], &snap))

	submit, err := dto.NewSubmitRequest(snap.Attempt.ID, dto.SubmissionPayload{
		Answers: map[string]model.AnswerEntry{"D2": {UserAnswer: "mười hai", TimeSpent: 33}},
	})
	require.NoError(t, err)
	callJSON(t, ts, http.MethodPost, "test_attempt.test_attempt.submit_test_attempt", submit)

	_, env = callJSON(t, ts, http.MethodGet,
		fmt.Sprintf("test_attempt.test_attempt.get_attempt_result_details?attempt_id=%s", snap.Attempt.ID), nil)

	var details dto.ResultDetailsDTO
	require.NoError(t, json.Unmarshal(env["message"], &details))
	require.Empty(t, details.MissingField())
	require.Len(t, details.QuestionsAnswers, 2)

	var row dto.QuestionAnswerRowDTO
	for _, r := range details.QuestionsAnswers {
		if r.DetailID == "D2" {
			row = r
		}
	}
	assert.Equal(t, `"mười hai"`, string(row.UserAnswer))
	require.NotNil(t, row.TimeSpent)
	assert.Equal(t, 33, *row.TimeSpent)
}

func TestCatalogAndSRSEndpoints(t *testing.T) {
	store := seededStore()
	ts := httptest.NewServer(New(store).Engine())
	defer ts.Close()

	_, env := callJSON(t, ts, http.MethodGet, "test.test.find_all_active_tests?test_type=Practice", nil)
	var tests []dto.TestSummaryDTO
	require.NoError(t, json.Unmarshal(env["message"], &tests))
	require.Len(t, tests, 1)
	assert.Equal(t, "TEST-1", tests[0].Name)
	assert.Equal(t, 2, tests[0].QuestionCount)

	_, env = callJSON(t, ts, http.MethodGet, "topics.topics.find_all_active_topics", nil)
	var topics []dto.TopicDTO
	require.NoError(t, json.Unmarshal(env["message"], &topics))
	require.Len(t, topics, 1)
	assert.Equal(t, "Hình học", topics[0].TopicName)

	_, env = callJSON(t, ts, http.MethodGet, "user_srs_progress.user_srs_progress.get_due_srs_summary", nil)
	var summary dto.SRSSummaryDTO
	require.NoError(t, json.Unmarshal(env["message"], &summary))
	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.DueCount)
	assert.Equal(t, 4, summary.UpcomingCount)
	assert.Equal(t, 13, summary.TotalCount)
	require.Len(t, summary.Topics, 1, "only topics with due cards are listed")
}

func TestBearerTokenRequiredWhenConfigured(t *testing.T) {
	store := seededStore()
	ts := httptest.NewServer(New(store, WithBearerToken("sekrit")).Engine())
	defer ts.Close()

	resp, err := http.Get(ts.URL + methodPrefix + "test.test.find_all_active_tests")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+methodPrefix+"test.test.find_all_active_tests", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownTestIsNotFound(t *testing.T) {
	ts := httptest.NewServer(New(seededStore()).Engine())
	defer ts.Close()

	resp, env := callJSON(t, ts, http.MethodGet, "test_attempt.test_attempt.start_or_resume_test_attempt?test_id=NOPE", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(env["_error_message"]), "NOPE")
}
