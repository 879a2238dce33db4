package service

import (
	"context"
	"fmt"
	"lounge-portal/internal/model"
	"lounge-portal/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindChatMessage = "chat_message"

	defaultMessageLimit = 100
	maxMessageLength    = 2000
)

// DefaultChatRooms are created by the migrate command.
var DefaultChatRooms = []*model.ChatRoom{
	{ID: "lobby", Name: "Lobby"},
	{ID: "tournaments", Name: "Tournaments"},
	{ID: "staff", Name: "Staff", StaffOnly: true},
}

type ChatService interface {
	ListRooms(ctx context.Context, identity model.Identity) ([]*model.ChatRoom, error)
	JoinRoom(ctx context.Context, identity model.Identity, roomID string) (*model.ChatRoom, error)
	ListMessages(ctx context.Context, identity model.Identity, roomID string) ([]*model.ChatMessage, error)
	PostMessage(ctx context.Context, identity model.Identity, roomID, body string) (*model.ChatMessage, error)
}

type chatServiceImpl struct {
	chatRepo  repository.ChatRepository
	publisher Publisher
}

func NewChatService(chatRepo repository.ChatRepository, publisher Publisher) ChatService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &chatServiceImpl{
		chatRepo:  chatRepo,
		publisher: publisher,
	}
}

func (s *chatServiceImpl) ListRooms(ctx context.Context, identity model.Identity) ([]*model.ChatRoom, error) {
	if !identity.HasUser() {
		return nil, ErrUnauthenticated
	}

	return s.chatRepo.ListRooms(ctx, identity.IsStaff())
}

// JoinRoom checks that the caller may read and write in the room.
func (s *chatServiceImpl) JoinRoom(ctx context.Context, identity model.Identity, roomID string) (*model.ChatRoom, error) {
	if !identity.HasUser() {
		return nil, ErrUnauthenticated
	}

	room, err := s.chatRepo.GetRoom(ctx, roomID)
	if repository.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat room: %w", err)
	}
	if room.StaffOnly && !identity.IsStaff() {
		return nil, ErrForbidden
	}

	return room, nil
}

func (s *chatServiceImpl) ListMessages(ctx context.Context, identity model.Identity, roomID string) ([]*model.ChatMessage, error) {
	room, err := s.JoinRoom(ctx, identity, roomID)
	if err != nil {
		return nil, err
	}

	return s.chatRepo.ListMessages(ctx, room.ID, defaultMessageLimit)
}

func (s *chatServiceImpl) PostMessage(ctx context.Context, identity model.Identity, roomID, body string) (*model.ChatMessage, error) {
	room, err := s.JoinRoom(ctx, identity, roomID)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxMessageLength {
		return nil, fmt.Errorf("%w: message body must be 1 to %d characters", ErrInvalidInput, maxMessageLength)
	}

	message := &model.ChatMessage{
		ID:        uuid.NewString(),
		RoomID:    room.ID,
		UserID:    identity.UserID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("store chat message: %w", err)
	}

	s.publisher.PublishToRoom(room.ID, KindChatMessage, message)

	return message, nil
}
