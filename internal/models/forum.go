package models

import (
	"time"

	"gorm.io/gorm"
)

type ForumCategory struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid"`
	Name         string `json:"name" gorm:"not null;uniqueIndex"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order" gorm:"not null;default:0"`
}

func (ForumCategory) TableName() string { return "forum_categories" }

func (c *ForumCategory) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Thread struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	CategoryID string    `json:"category_id" gorm:"type:uuid;not null;index"`
	UserID     string    `json:"user_id" gorm:"type:uuid;not null;index"`
	Title      string    `json:"title" gorm:"not null"`
	IsPinned   bool      `json:"is_pinned" gorm:"not null;default:false"`
	IsLocked   bool      `json:"is_locked" gorm:"not null;default:false"`
	ViewCount  int       `json:"view_count" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Thread) TableName() string { return "forum_threads" }

func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	ThreadID  string    `json:"thread_id" gorm:"type:uuid;not null;index"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	LikeCount int       `json:"like_count" gorm:"not null;default:0"`
	IsEdited  bool      `json:"is_edited" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "forum_posts" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PostLike is the source of truth for Post.LikeCount. The composite unique
// index makes a second like by the same user fail at the store.
type PostLike struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	PostID    string    `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_post_user"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_post_likes_post_user;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostLike) TableName() string { return "post_likes" }

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}
