package services

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"chill-backend/internal/models"
)

const systemPrompt = `You are Chill, a compassionate and empathetic AI mental health companion. Your role is to:

- Listen actively and validate the user's feelings without judgment
- Provide emotional support and encouragement
- Help users explore their thoughts and feelings
- Suggest healthy coping strategies when appropriate
- Recognize when professional help may be needed and gently encourage it
- Maintain a warm, calm, and supportive tone

Remember: You're not a replacement for professional mental health care, but a supportive companion for everyday emotional wellness. If users mention self-harm, suicide, or severe mental health crises, compassionately encourage them to seek immediate professional help.`

const (
	// historyWindow is the number of prior turns sent to the completion API.
	historyWindow = 10
	// historyLimit caps the history endpoint.
	historyLimit = 50

	completionMaxTokens   = 1000
	completionTemperature = 0.7
)

type messageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error)
	ListOldest(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type completionGateway interface {
	CreateChatCompletion(ctx context.Context, request CompletionRequest) (*CompletionResponse, error)
}

type ChatService struct {
	messages    messageStore
	completions completionGateway
	model       string
}

func NewChatService(messages messageStore, completions completionGateway, model string) *ChatService {
	return &ChatService{
		messages:    messages,
		completions: completions,
		model:       model,
	}
}

// SendMessage persists the user's message, assembles the recent conversation
// window and returns the assistant's reply. The two writes are independent: a
// failed assistant write never fails a reply already computed.
func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, content, messageType string) (*models.ChatResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if messageType != models.MessageTypeText && messageType != models.MessageTypeVoice {
		return nil, &ValidationError{Fields: map[string]string{"messageType": "Message type must be 'text' or 'voice'"}}
	}

	userMsg := &models.Message{
		UserID:      userID,
		Role:        models.RoleUser,
		Content:     content,
		MessageType: messageType,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, &StorageError{Err: err}
	}

	// A failed history fetch degrades to an empty window rather than
	// failing the request.
	history, err := s.messages.ListRecent(ctx, userID, historyWindow)
	if err != nil {
		log.Printf("History fetch failed for user %s: %v", userID, err)
		history = nil
	}

	completion, err := s.completions.CreateChatCompletion(ctx, CompletionRequest{
		Model:       s.model,
		Messages:    buildWindow(history),
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	})
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	reply := completion.Choices[0].Message.Content

	assistantMsg := &models.Message{
		UserID:      userID,
		Role:        models.RoleAssistant,
		Content:     reply,
		MessageType: models.MessageTypeText,
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		// Best-effort write: the reply is already computed.
		log.Printf("Failed to save assistant message for user %s: %v", userID, err)
	}

	return &models.ChatResponse{
		Message:        reply,
		ConversationID: completion.ID,
	}, nil
}

// History returns up to 50 messages for the user in chronological order.
func (s *ChatService) History(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	messages, err := s.messages.ListOldest(ctx, userID, historyLimit)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	return messages, nil
}

// ClearHistory deletes every message owned by the user. Clearing an already
// empty history succeeds.
func (s *ChatService) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	if err := s.messages.DeleteByUser(ctx, userID); err != nil {
		return &StorageError{Err: err}
	}
	return nil
}

// buildWindow turns a newest-first history fetch into the prompt sequence:
// the fixed system instruction followed by the turns in chronological order.
func buildWindow(history []models.Message) []models.ChatMessage {
	window := make([]models.ChatMessage, 0, len(history)+1)
	window = append(window, models.ChatMessage{Role: "system", Content: systemPrompt})

	for i := len(history) - 1; i >= 0; i-- {
		window = append(window, models.ChatMessage{
			Role:    history[i].Role,
			Content: history[i].Content,
		})
	}
	return window
}
