package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestProgressSaveLoadDelete(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	data, err := repo.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load (empty): %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil snapshot, got %q", data)
	}

	if err := repo.Save(ctx, "sess-1", []byte(`{"cursor":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, "sess-1", []byte(`{"cursor":2}`)); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if err := repo.Save(ctx, "sess-2", []byte(`{"cursor":9}`)); err != nil {
		t.Fatalf("save other: %v", err)
	}

	data, err = repo.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"cursor":2}` {
		t.Errorf("data = %q, want latest save", data)
	}

	if err := repo.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	data, _ = repo.Load(ctx, "sess-1")
	if data != nil {
		t.Errorf("expected snapshot to be gone, got %q", data)
	}
	data, _ = repo.Load(ctx, "sess-2")
	if string(data) != `{"cursor":9}` {
		t.Errorf("other session snapshot = %q, want untouched", data)
	}
}

func TestRecordingRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordingRepo()
	ctx := context.Background()

	for _, rec := range []Recording{
		{SessionID: "s", QuestionID: 2, Path: "/tmp/q2.ogg"},
		{SessionID: "s", QuestionID: 1, Path: "/tmp/q1.ogg"},
		{SessionID: "s", QuestionID: 1, Path: "/tmp/q1-take2.ogg"},
		{SessionID: "other", QuestionID: 1, Path: "/tmp/other.ogg"},
	} {
		if err := repo.Put(ctx, rec); err != nil {
			t.Fatalf("put %+v: %v", rec, err)
		}
	}
	if err := repo.SetObjectKey(ctx, "s", 2, "recordings/s/2.ogg"); err != nil {
		t.Fatalf("set object key: %v", err)
	}

	recs, err := repo.List(ctx, "s")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].QuestionID != 1 || recs[0].Path != "/tmp/q1-take2.ogg" {
		t.Errorf("recs[0] = %+v, want replaced question 1 recording", recs[0])
	}
	if recs[1].ObjectKey != "recordings/s/2.ogg" {
		t.Errorf("recs[1].ObjectKey = %q", recs[1].ObjectKey)
	}
	if recs[1].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	if err := repo.DeleteSession(ctx, "s"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	recs, _ = repo.List(ctx, "s")
	if len(recs) != 0 {
		t.Errorf("expected no recordings after delete, got %d", len(recs))
	}
	recs, _ = repo.List(ctx, "other")
	if len(recs) != 1 {
		t.Errorf("other session recordings = %d, want 1", len(recs))
	}
}

func TestSessionRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := SessionRecord{
		SessionID:     "older",
		JobRole:       "SRE",
		QuestionCount: 1,
		Questions:     []StoredQuestion{{ID: 1, Text: "What is an SLO?"}},
		CreatedAt:     base,
	}
	newer := SessionRecord{
		SessionID:      "newer",
		JobRole:        "Backend Engineer",
		JobDescription: "Go services",
		Difficulty:     "hard",
		QuestionCount:  2,
		Questions: []StoredQuestion{
			{ID: 1, Text: "Explain channels.", AudioIndex: 3},
			{ID: 2, Text: "Explain contexts."},
		},
		CreatedAt: base.Add(time.Hour),
	}
	for _, rec := range []SessionRecord{older, newer} {
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.SessionID, err)
		}
	}

	got, err := repo.Get(ctx, "newer")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.JobRole != "Backend Engineer" || got.Difficulty != "hard" {
		t.Errorf("got %+v", got)
	}
	if len(got.Questions) != 2 || got.Questions[0].AudioIndex != 3 {
		t.Errorf("questions = %+v", got.Questions)
	}
	if !got.CreatedAt.Equal(newer.CreatedAt) {
		t.Errorf("created = %v, want %v", got.CreatedAt, newer.CreatedAt)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}

	list, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].SessionID != "newer" {
		t.Errorf("list order = %+v, want newest first", list)
	}
	list, _ = repo.List(ctx, 1)
	if len(list) != 1 {
		t.Errorf("limited list len = %d, want 1", len(list))
	}
}

func TestCurrentSessionPointer(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	id, err := repo.Current(ctx, now)
	if err != nil {
		t.Fatalf("current (empty): %v", err)
	}
	if id != "" {
		t.Fatalf("current = %q, want empty", id)
	}

	if err := repo.SetCurrent(ctx, "abc", now.Add(time.Hour)); err != nil {
		t.Fatalf("set current: %v", err)
	}
	if id, _ := repo.Current(ctx, now); id != "abc" {
		t.Errorf("current = %q, want abc", id)
	}
	if id, _ := repo.Current(ctx, now.Add(2*time.Hour)); id != "" {
		t.Errorf("expired current = %q, want empty", id)
	}

	if err := repo.SetCurrent(ctx, "def", now.Add(time.Hour)); err != nil {
		t.Fatalf("replace current: %v", err)
	}
	if id, _ := repo.Current(ctx, now); id != "def" {
		t.Errorf("current = %q, want def", id)
	}

	if err := repo.ClearCurrent(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if id, _ := repo.Current(ctx, now); id != "" {
		t.Errorf("current after clear = %q, want empty", id)
	}
}

func TestCredentialRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.CredentialRepo()
	ctx := context.Background()

	c, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load (empty): %v", err)
	}
	if c != nil {
		t.Fatalf("expected no credential, got %+v", c)
	}

	exp := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	want := Credential{UID: "u1", Email: "a@b.c", IDToken: "id", RefreshToken: "rt", ExpiresAt: exp}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	c, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.UID != want.UID || c.Email != want.Email || c.IDToken != want.IDToken ||
		c.RefreshToken != want.RefreshToken || !c.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("credential = %+v, want %+v", *c, want)
	}

	if err := repo.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c, _ = repo.Load(ctx)
	if c != nil {
		t.Errorf("expected credential to be gone, got %+v", c)
	}
}

func TestEventSequenceSharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	score := 80
	if err := repo.AppendAnswerEvent(ctx, AnswerEventData{SessionID: "s", QuestionID: 1, Score: &score, Success: true}); err != nil {
		t.Fatalf("append answer: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "answer-eval", Success: true}); err != nil {
		t.Fatalf("append llm: %v", err)
	}
	if err := repo.AppendAnswerEvent(ctx, AnswerEventData{SessionID: "s", QuestionID: 2, Success: false, ErrorMessage: "boom"}); err != nil {
		t.Fatalf("append answer: %v", err)
	}

	answers, err := repo.AnswerEvents(ctx, "s")
	if err != nil {
		t.Fatalf("answer events: %v", err)
	}
	llmEvents, err := repo.QueryLLMRequests(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("llm events: %v", err)
	}
	if len(answers) != 2 || len(llmEvents) != 1 {
		t.Fatalf("got %d answers, %d llm events", len(answers), len(llmEvents))
	}
	if !(answers[0].Sequence < llmEvents[0].Sequence && llmEvents[0].Sequence < answers[1].Sequence) {
		t.Errorf("sequences not interleaved: %d, %d, %d",
			answers[0].Sequence, llmEvents[0].Sequence, answers[1].Sequence)
	}
	if answers[0].Score == nil || *answers[0].Score != 80 {
		t.Errorf("answers[0].Score = %v, want 80", answers[0].Score)
	}
	if answers[1].Score != nil {
		t.Errorf("answers[1].Score = %v, want nil", *answers[1].Score)
	}
	if answers[1].Success || answers[1].ErrorMessage != "boom" {
		t.Errorf("answers[1] = %+v", answers[1])
	}
}

func TestLLMEventQueries(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude", Purpose: "question-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "anthropic", Model: "claude", Purpose: "answer-eval", InputTokens: 40, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Provider: "anthropic", Model: "claude", Purpose: "answer-eval", InputTokens: 60, OutputTokens: 0, LatencyMs: 300, Success: false, ErrorMessage: "timeout"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMRequests(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ErrorMessage != "timeout" {
		t.Errorf("expected newest first, got %+v", all[0])
	}

	limited, _ := repo.QueryLLMRequests(ctx, QueryOpts{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limited len = %d, want 1", len(limited))
	}
	evals, _ := repo.QueryLLMRequests(ctx, QueryOpts{Purpose: "answer-eval", Limit: 5})
	if len(evals) != 2 {
		t.Errorf("purpose filter len = %d, want 2", len(evals))
	}
	after, _ := repo.QueryLLMRequests(ctx, QueryOpts{After: all[1].Sequence})
	if len(after) != 1 || after[0].ID != all[0].ID {
		t.Errorf("after filter = %+v", after)
	}

	first, err := repo.GetLLMRequest(ctx, all[2].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.RequestBody != "req" || first.ResponseBody != "resp" || !first.Success {
		t.Errorf("get = %+v", first)
	}
	if _, err := repo.GetLLMRequest(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	eval := byPurpose[0]
	if eval.Key != "answer-eval" || eval.Requests != 2 || eval.Failures != 1 ||
		eval.InputTokens != 100 || eval.OutputTokens != 10 || eval.AvgLatencyMs != 200 {
		t.Errorf("answer-eval stats = %+v", eval)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Requests != 3 {
		t.Errorf("by model = %+v", byModel)
	}
}

func TestEventSequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.db")
	ctx := context.Background()

	var last int64
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		repo := s.EventRepo()
		for j := 0; j < 3; j++ {
			if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "p", Success: true}); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
		events, err := repo.QueryLLMRequests(ctx, QueryOpts{Limit: 1})
		if err != nil || len(events) != 1 {
			t.Fatalf("query: %v (%d events)", err, len(events))
		}
		if events[0].Sequence <= last {
			t.Errorf("sequence %d did not grow past %d", events[0].Sequence, last)
		}
		last = events[0].Sequence

		var rows int
		if err := s.DB().QueryRow(`SELECT COUNT(*) FROM event_sequence`).Scan(&rows); err != nil {
			t.Fatalf("count: %v", err)
		}
		if rows != 1 {
			t.Errorf("event_sequence holds %d rows, want 1 after pruning", rows)
		}
		s.Close()
	}
	if last != 6 {
		t.Errorf("last sequence = %d, want 6", last)
	}
}
