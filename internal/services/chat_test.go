package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"chill-backend/internal/models"
)

// ─── Fakes ───

type fakeMessageStore struct {
	messages       []models.Message
	failCreateRole string
	recentErr      error
	oldestErr      error
	deleteErr      error
	clock          time.Time
}

func (f *fakeMessageStore) Create(ctx context.Context, msg *models.Message) error {
	if f.failCreateRole != "" && msg.Role == f.failCreateRole {
		return errors.New("insert failed")
	}
	msg.ID = uuid.New()
	f.clock = f.clock.Add(time.Second)
	msg.CreatedAt = f.clock
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	var out []models.Message
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].UserID == userID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListOldest(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	if f.oldestErr != nil {
		return nil, f.oldestErr
	}
	out := make([]models.Message, 0)
	for _, m := range f.messages {
		if m.UserID == userID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.messages[:0]
	for _, m := range f.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

type fakeCompletionGateway struct {
	lastRequest *CompletionRequest
	reply       string
	id          string
	err         error
}

func (f *fakeCompletionGateway) CreateChatCompletion(ctx context.Context, request CompletionRequest) (*CompletionResponse, error) {
	f.lastRequest = &request
	if f.err != nil {
		return nil, f.err
	}
	return &CompletionResponse{
		ID: f.id,
		Choices: []CompletionChoice{
			{Message: models.ChatMessage{Role: models.RoleAssistant, Content: f.reply}},
		},
	}, nil
}

func newChatFixture() (*ChatService, *fakeMessageStore, *fakeCompletionGateway) {
	store := &fakeMessageStore{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	gateway := &fakeCompletionGateway{reply: "I'm here for you.", id: "chatcmpl-123"}
	return NewChatService(store, gateway, "gpt-4o-mini"), store, gateway
}

func seedMessages(store *fakeMessageStore, userID uuid.UUID, n int) {
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		store.Create(context.Background(), &models.Message{
			UserID:      userID,
			Role:        role,
			Content:     fmt.Sprintf("turn %d", i),
			MessageType: models.MessageTypeText,
		})
	}
}

// ─── SendMessage ───

func TestSendMessage_EmptyContent(t *testing.T) {
	svc, store, _ := newChatFixture()

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(context.Background(), uuid.New(), tc.content, "text")

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(store.messages) != 0 {
				t.Errorf("Expected no messages written, got %d", len(store.messages))
			}
		})
	}
}

func TestSendMessage_InvalidMessageType(t *testing.T) {
	svc, store, _ := newChatFixture()

	_, err := svc.SendMessage(context.Background(), uuid.New(), "hello", "video")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(store.messages) != 0 {
		t.Errorf("Expected no messages written, got %d", len(store.messages))
	}
}

func TestSendMessage_Success(t *testing.T) {
	svc, store, gateway := newChatFixture()
	userID := uuid.New()

	resp, err := svc.SendMessage(context.Background(), userID, "I feel anxious", "")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if resp.Message != "I'm here for you." {
		t.Errorf("Expected assistant reply, got %q", resp.Message)
	}
	if resp.ConversationID != "chatcmpl-123" {
		t.Errorf("Expected conversation ID 'chatcmpl-123', got %q", resp.ConversationID)
	}

	if len(store.messages) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(store.messages))
	}
	if store.messages[0].Role != models.RoleUser || store.messages[1].Role != models.RoleAssistant {
		t.Errorf("Expected roles user then assistant, got %q then %q",
			store.messages[0].Role, store.messages[1].Role)
	}
	if store.messages[0].MessageType != models.MessageTypeText {
		t.Errorf("Expected empty message type to default to text, got %q", store.messages[0].MessageType)
	}
	if store.messages[1].MessageType != models.MessageTypeText {
		t.Errorf("Expected assistant message type text, got %q", store.messages[1].MessageType)
	}

	if gateway.lastRequest.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %q", gateway.lastRequest.Model)
	}
	if gateway.lastRequest.MaxTokens != 1000 {
		t.Errorf("Expected max tokens 1000, got %d", gateway.lastRequest.MaxTokens)
	}
	if gateway.lastRequest.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", gateway.lastRequest.Temperature)
	}
}

func TestSendMessage_WindowBounds(t *testing.T) {
	svc, store, gateway := newChatFixture()
	userID := uuid.New()
	seedMessages(store, userID, 25)

	if _, err := svc.SendMessage(context.Background(), userID, "one more", "text"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	window := gateway.lastRequest.Messages
	// System instruction plus at most 10 prior turns
	if len(window) != 11 {
		t.Fatalf("Expected window of 11 messages, got %d", len(window))
	}
	if window[0].Role != "system" {
		t.Errorf("Expected window to start with system instruction, got role %q", window[0].Role)
	}

	// Remaining turns must be in chronological order, ending with the new message
	if window[len(window)-1].Content != "one more" {
		t.Errorf("Expected window to end with the new message, got %q", window[len(window)-1].Content)
	}
	for i := 1; i < len(window)-1; i++ {
		expected := fmt.Sprintf("turn %d", 25-10+i)
		if window[i].Content != expected {
			t.Errorf("Window position %d: expected %q, got %q", i, expected, window[i].Content)
		}
	}
}

func TestSendMessage_HistoryFetchFailureDegrades(t *testing.T) {
	svc, store, gateway := newChatFixture()
	store.recentErr = errors.New("connection reset")

	resp, err := svc.SendMessage(context.Background(), uuid.New(), "hello", "text")
	if err != nil {
		t.Fatalf("Expected degraded success, got %v", err)
	}
	if resp.Message == "" {
		t.Error("Expected a reply despite history failure")
	}

	// Only the system instruction survives
	if len(gateway.lastRequest.Messages) != 1 {
		t.Errorf("Expected window of 1 message, got %d", len(gateway.lastRequest.Messages))
	}
}

func TestSendMessage_UserWriteFailure(t *testing.T) {
	gateway := &fakeCompletionGateway{reply: "unused"}
	store := &fakeMessageStore{failCreateRole: models.RoleUser}
	svc := NewChatService(store, gateway, "gpt-4o-mini")

	_, err := svc.SendMessage(context.Background(), uuid.New(), "hello", "text")

	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected StorageError, got %v", err)
	}
	if gateway.lastRequest != nil {
		t.Error("Expected no completion call after failed write")
	}
}

func TestSendMessage_UpstreamFailure(t *testing.T) {
	svc, store, gateway := newChatFixture()
	gateway.err = errors.New("502 bad gateway")
	userID := uuid.New()

	_, err := svc.SendMessage(context.Background(), userID, "hello", "text")

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}

	// The user message persists; no assistant row is written
	if len(store.messages) != 1 {
		t.Fatalf("Expected 1 persisted message, got %d", len(store.messages))
	}
	if store.messages[0].Role != models.RoleUser {
		t.Errorf("Expected the surviving message to have role user, got %q", store.messages[0].Role)
	}
}

func TestSendMessage_AssistantWriteFailureIsSwallowed(t *testing.T) {
	gateway := &fakeCompletionGateway{reply: "Take a deep breath.", id: "chatcmpl-9"}
	store := &fakeMessageStore{failCreateRole: models.RoleAssistant, clock: time.Now()}
	svc := NewChatService(store, gateway, "gpt-4o-mini")

	resp, err := svc.SendMessage(context.Background(), uuid.New(), "hello", "text")
	if err != nil {
		t.Fatalf("Expected success despite assistant write failure, got %v", err)
	}
	if resp.Message != "Take a deep breath." {
		t.Errorf("Expected reply to reach the caller, got %q", resp.Message)
	}
}

// ─── History ───

func TestHistory_ChronologicalOrder(t *testing.T) {
	svc, store, _ := newChatFixture()
	userID := uuid.New()
	seedMessages(store, userID, 4)

	messages, err := svc.History(context.Background(), userID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Errorf("Messages out of chronological order at position %d", i)
		}
	}
}

func TestHistory_CapsAtFifty(t *testing.T) {
	svc, store, _ := newChatFixture()
	userID := uuid.New()
	seedMessages(store, userID, 60)

	messages, err := svc.History(context.Background(), userID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(messages) != 50 {
		t.Errorf("Expected 50 messages, got %d", len(messages))
	}
}

func TestHistory_StorageFailure(t *testing.T) {
	svc, store, _ := newChatFixture()
	store.oldestErr = errors.New("connection reset")

	_, err := svc.History(context.Background(), uuid.New())

	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected StorageError, got %v", err)
	}
}

// ─── ClearHistory ───

func TestClearHistory_Idempotent(t *testing.T) {
	svc, store, _ := newChatFixture()
	userID := uuid.New()
	seedMessages(store, userID, 6)

	if err := svc.ClearHistory(context.Background(), userID); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}

	messages, err := svc.History(context.Background(), userID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected empty history after clear, got %d messages", len(messages))
	}

	// Clearing an already empty history succeeds
	if err := svc.ClearHistory(context.Background(), userID); err != nil {
		t.Errorf("Expected second clear to succeed, got %v", err)
	}
}

func TestClearHistory_OnlyOwnMessages(t *testing.T) {
	svc, store, _ := newChatFixture()
	userA := uuid.New()
	userB := uuid.New()
	seedMessages(store, userA, 3)
	seedMessages(store, userB, 3)

	if err := svc.ClearHistory(context.Background(), userA); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}

	remaining, _ := svc.History(context.Background(), userB)
	if len(remaining) != 3 {
		t.Errorf("Expected user B history untouched, got %d messages", len(remaining))
	}
}
