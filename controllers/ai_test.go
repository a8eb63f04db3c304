package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"mamacare/middleware"
	"mamacare/models"
	"mamacare/pkg/realtime"
	svc "mamacare/pkg/services"
	"mamacare/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}, &models.NurseSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// asUser injects the authenticated user id the way AuthMiddleware would.
func asUser(uid uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, strconv.Itoa(int(uid)))
		c.Next()
	}
}

type fakeResponder struct {
	reply       string
	replyErr    error
	analysis    *svc.SymptomAnalysis
	analyzeErr  error
	lastPremium bool
	lastWeek    int
	calls       int
}

func (f *fakeResponder) Reply(ctx context.Context, message string) (string, error) {
	return f.reply, f.replyErr
}

func (f *fakeResponder) Analyze(ctx context.Context, message string, isPremium bool, week int) (*svc.SymptomAnalysis, error) {
	f.calls++
	f.lastPremium = isPremium
	f.lastWeek = week
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	// mirror the real responder's gating contract
	out := *f.analysis
	if !isPremium {
		out.Causes = nil
		if len(out.Recommendations) > 1 {
			out.Recommendations = out.Recommendations[:1]
		}
	}
	return &out, nil
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedUser(t *testing.T, db *gorm.DB, premium bool) *models.User {
	t.Helper()
	user := &models.User{Email: fmt.Sprintf("u%v@example.com", premium), FullName: "Ada", IsPremium: premium}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestAIResponseChatPersistsReply(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cs := store.New(db, realtime.NewBroker())
	user := seedUser(t, db, false)
	conv, err := cs.CreateConversation(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	ai := &fakeResponder{reply: "Rest and stay hydrated."}
	r := gin.New()
	r.POST("/functions/ai-response", asUser(user.ID), AIResponse(db, cs, ai))

	w := postJSON(r, "/functions/ai-response", gin.H{"message": "I feel dizzy", "conversation_id": conv.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	msgs, _ := cs.ListMessages(context.Background(), conv.ID)
	if len(msgs) != 1 || msgs[0].SenderType != models.SenderAI || msgs[0].Content != ai.reply {
		t.Fatalf("expected one persisted ai message, got %+v", msgs)
	}
}

func TestAIResponseChatFailureWritesNothing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cs := store.New(db, realtime.NewBroker())
	user := seedUser(t, db, false)
	conv, _ := cs.CreateConversation(context.Background(), user.ID)

	ai := &fakeResponder{replyErr: errors.New("upstream timeout")}
	r := gin.New()
	r.POST("/functions/ai-response", asUser(user.ID), AIResponse(db, cs, ai))

	w := postJSON(r, "/functions/ai-response", gin.H{"message": "hello again", "conversation_id": conv.ID})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error == "" {
		t.Fatalf("expected error body, got %s", w.Body.String())
	}

	msgs, _ := cs.ListMessages(context.Background(), conv.ID)
	if len(msgs) != 0 {
		t.Fatalf("failed reply must not leave partial writes, got %+v", msgs)
	}
}

func TestAIResponseChatRejectsForeignConversation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cs := store.New(db, realtime.NewBroker())
	owner := seedUser(t, db, false)
	conv, _ := cs.CreateConversation(context.Background(), owner.ID)

	other := &models.User{Email: "other@example.com", FullName: "Bisi"}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := gin.New()
	r.POST("/functions/ai-response", asUser(other.ID), AIResponse(db, cs, &fakeResponder{reply: "hi"}))

	w := postJSON(r, "/functions/ai-response", gin.H{"message": "peek", "conversation_id": conv.ID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign conversation, got %d", w.Code)
	}
}

func TestAnalysisGatingFollowsPremiumFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cs := store.New(db, realtime.NewBroker())
	free := seedUser(t, db, false)
	premium := seedUser(t, db, true)

	full := &svc.SymptomAnalysis{
		RiskLevel:       "medium",
		Causes:          []string{"dehydration", "low blood pressure"},
		Recommendations: []string{"drink water", "rest on your left side", "see a doctor if it persists"},
	}

	run := func(uid uint, marker string) (*fakeResponder, gin.H) {
		ai := &fakeResponder{analysis: full}
		r := gin.New()
		r.POST("/functions/ai-response", asUser(uid), AIResponse(db, cs, ai))
		w := postJSON(r, "/functions/ai-response", gin.H{"message": "dizzy spells " + marker})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Success  bool  `json:"success"`
			Analysis gin.H `json:"analysis"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Success {
			t.Fatalf("bad response: %s", w.Body.String())
		}
		return ai, resp.Analysis
	}

	ai, analysis := run(free.ID, "free")
	if ai.lastPremium {
		t.Fatalf("free user must be analyzed as non-premium")
	}
	if _, hasCauses := analysis["causes"]; hasCauses {
		t.Fatalf("free analysis must not include causes: %v", analysis)
	}
	if recs, ok := analysis["recommendations"].([]any); !ok || len(recs) != 1 {
		t.Fatalf("free analysis gets a single teaser recommendation: %v", analysis)
	}

	ai, analysis = run(premium.ID, "premium")
	if !ai.lastPremium {
		t.Fatalf("premium user must be analyzed as premium")
	}
	if recs, ok := analysis["recommendations"].([]any); !ok || len(recs) != 3 {
		t.Fatalf("premium analysis keeps all recommendations: %v", analysis)
	}
	if causes, ok := analysis["causes"].([]any); !ok || len(causes) != 2 {
		t.Fatalf("premium analysis keeps causes: %v", analysis)
	}
}

func TestAnalysisResultIsCached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cs := store.New(db, realtime.NewBroker())
	user := seedUser(t, db, true)

	ai := &fakeResponder{analysis: &svc.SymptomAnalysis{RiskLevel: "low", Recommendations: []string{"rest"}}}
	r := gin.New()
	r.POST("/functions/ai-response", asUser(user.ID), AIResponse(db, cs, ai))

	body := gin.H{"message": "mild headache cache test"}
	if w := postJSON(r, "/functions/ai-response", body); w.Code != http.StatusOK {
		t.Fatalf("first call: %d", w.Code)
	}
	if w := postJSON(r, "/functions/ai-response", body); w.Code != http.StatusOK {
		t.Fatalf("second call: %d", w.Code)
	}
	if ai.calls != 1 {
		t.Fatalf("expected the second identical analysis to be served from cache, responder ran %d times", ai.calls)
	}
}
