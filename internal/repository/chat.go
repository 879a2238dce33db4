package repository

import (
	"context"
	"lounge-portal/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository interface {
	SeedRooms(ctx context.Context, rooms []*model.ChatRoom) error
	ListRooms(ctx context.Context, includeStaffOnly bool) ([]*model.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string) (*model.ChatRoom, error)
	CreateMessage(ctx context.Context, message *model.ChatMessage) error
	ListMessages(ctx context.Context, roomID string, limit int) ([]*model.ChatMessage, error)
}

type chatRepoImpl struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepoImpl{
		db: db,
	}
}

func (r *chatRepoImpl) SeedRooms(ctx context.Context, rooms []*model.ChatRoom) error {
	if len(rooms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rooms).Error
}

func (r *chatRepoImpl) ListRooms(ctx context.Context, includeStaffOnly bool) ([]*model.ChatRoom, error) {
	var rooms []*model.ChatRoom
	query := r.db.WithContext(ctx)
	if !includeStaffOnly {
		query = query.Where("staff_only = ?", false)
	}

	err := query.Order("name ASC").Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *chatRepoImpl) GetRoom(ctx context.Context, roomID string) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := r.db.WithContext(ctx).
		Where("id = ?", roomID).
		First(&room).Error

	if err != nil {
		return nil, err
	}

	return &room, nil
}

func (r *chatRepoImpl) CreateMessage(ctx context.Context, message *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessages returns the latest messages of a room in chronological order.
func (r *chatRepoImpl) ListMessages(ctx context.Context, roomID string, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
