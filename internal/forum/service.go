// Package forum implements categories, threads, posts and likes.
//
// Invariants kept by this package:
//   - a thread always has at least one post; it is created together with its
//     first post and removed together with its last one
//   - a locked thread accepts no new posts
//   - posts.like_count equals the number of post_likes rows for the post
//   - only a post's author may edit or delete it
package forum

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"deediq/internal/apperror"
	"deediq/internal/auth"
	"deediq/internal/messaging"
	"deediq/internal/models"
)

const (
	MinTitleLength   = 5
	MinContentLength = 10
)

// Publisher receives forum events after the write that caused them commits.
type Publisher interface {
	Publish(subject string, event interface{}) error
}

type Service struct {
	db     *gorm.DB
	events Publisher
}

// NewService returns a forum service. events may be nil.
func NewService(db *gorm.DB, events Publisher) *Service {
	return &Service{db: db, events: events}
}

type CategorySummary struct {
	models.ForumCategory
	ThreadCount int64 `json:"thread_count"`
	PostCount   int64 `json:"post_count"`
}

type ThreadSummary struct {
	models.Thread
	Author      string     `json:"author"`
	ReplyCount  int        `json:"reply_count"`
	LastReplyAt *time.Time `json:"last_reply_at"`
}

type ThreadView struct {
	models.Thread
	Author       string `json:"author"`
	CategoryName string `json:"category_name"`
}

type PostView struct {
	models.Post
	Author      string `json:"author"`
	LikedByUser bool   `json:"liked_by_user"`
}

type ThreadDetail struct {
	Thread ThreadView `json:"thread"`
	Posts  []PostView `json:"posts"`
}

// UserPost is a post listed outside its thread.
type UserPost struct {
	models.Post
	ThreadTitle string `json:"thread_title"`
}

// ListCategories returns every category in display order with thread and
// post counts aggregated at read time.
func (s *Service) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	categories := []CategorySummary{}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			c.id, c.name, c.description, c.icon, c.display_order,
			COUNT(DISTINCT t.id) AS thread_count,
			COUNT(DISTINCT p.id) AS post_count
		FROM forum_categories c
		LEFT JOIN forum_threads t ON c.id = t.category_id
		LEFT JOIN forum_posts p ON t.id = p.thread_id
		GROUP BY c.id, c.name, c.description, c.icon, c.display_order
		ORDER BY c.display_order ASC`).
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListThreads returns a category's threads, pinned first, then most
// recently active.
func (s *Service) ListThreads(ctx context.Context, categoryID string) ([]ThreadSummary, error) {
	db := s.db.WithContext(ctx)
	if err := categoryExists(db, categoryID); err != nil {
		return nil, err
	}
	return s.threadSummaries(db, "t.category_id = ?", categoryID, "t.is_pinned DESC, t.updated_at DESC")
}

// UserThreads returns the threads a user started, newest first.
func (s *Service) UserThreads(ctx context.Context, userID string) ([]ThreadSummary, error) {
	return s.threadSummaries(s.db.WithContext(ctx), "t.user_id = ?", userID, "t.created_at DESC")
}

func (s *Service) threadSummaries(db *gorm.DB, where string, arg interface{}, order string) ([]ThreadSummary, error) {
	threads := []ThreadSummary{}
	err := db.Table("forum_threads AS t").
		Select("t.*, u.username AS author").
		Joins("JOIN users u ON u.id = t.user_id").
		Where(where, arg).
		Order(order).
		Scan(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	if len(threads) == 0 {
		return threads, nil
	}

	ids := make([]string, len(threads))
	for i, t := range threads {
		ids[i] = t.ID
	}

	var stamps []struct {
		ThreadID  string
		CreatedAt time.Time
	}
	err = db.Model(&models.Post{}).
		Select("thread_id, created_at").
		Where("thread_id IN ?", ids).
		Scan(&stamps).Error
	if err != nil {
		return nil, fmt.Errorf("count replies: %w", err)
	}

	index := make(map[string]*ThreadSummary, len(threads))
	for i := range threads {
		index[threads[i].ID] = &threads[i]
	}
	for _, st := range stamps {
		t := index[st.ThreadID]
		t.ReplyCount++
		if t.LastReplyAt == nil || st.CreatedAt.After(*t.LastReplyAt) {
			at := st.CreatedAt
			t.LastReplyAt = &at
		}
	}
	return threads, nil
}

// GetThread returns a thread with its posts in posting order and counts the
// fetch as a view. For an authenticated caller each post reports whether the
// caller liked it.
func (s *Service) GetThread(ctx context.Context, threadID string, caller auth.Caller) (*ThreadDetail, error) {
	detail := &ThreadDetail{Posts: []PostView{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Thread{}).
			Where("id = ?", threadID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.Missing("Thread not found")
		}

		err := tx.Table("forum_threads AS t").
			Select("t.*, u.username AS author, c.name AS category_name").
			Joins("JOIN users u ON u.id = t.user_id").
			Joins("JOIN forum_categories c ON c.id = t.category_id").
			Where("t.id = ?", threadID).
			Take(&detail.Thread).Error
		if err != nil {
			return err
		}

		err = tx.Table("forum_posts AS p").
			Select("p.*, u.username AS author").
			Joins("JOIN users u ON u.id = p.user_id").
			Where("p.thread_id = ?", threadID).
			Order("p.created_at ASC").
			Scan(&detail.Posts).Error
		if err != nil {
			return err
		}

		if !caller.Authenticated() || len(detail.Posts) == 0 {
			return nil
		}
		ids := make([]string, len(detail.Posts))
		for i, p := range detail.Posts {
			ids[i] = p.ID
		}
		var liked []string
		err = tx.Model(&models.PostLike{}).
			Where("user_id = ? AND post_id IN ?", caller.UserID, ids).
			Pluck("post_id", &liked).Error
		if err != nil {
			return err
		}
		likedSet := make(map[string]bool, len(liked))
		for _, id := range liked {
			likedSet[id] = true
		}
		for i := range detail.Posts {
			detail.Posts[i].LikedByUser = likedSet[detail.Posts[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, wrap("get thread", err)
	}
	return detail, nil
}

// CreateThread creates a thread and its first post in one transaction and
// returns the thread id.
func (s *Service) CreateThread(ctx context.Context, caller auth.Caller, categoryID, title, content string) (string, error) {
	if err := caller.Require(); err != nil {
		return "", err
	}
	if categoryID == "" || title == "" || content == "" {
		return "", apperror.Invalid("Category, title, and content are required")
	}
	if utf8.RuneCountInString(title) < MinTitleLength {
		return "", apperror.Invalid(fmt.Sprintf("Title must be at least %d characters", MinTitleLength))
	}
	if utf8.RuneCountInString(content) < MinContentLength {
		return "", apperror.Invalid(fmt.Sprintf("Content must be at least %d characters", MinContentLength))
	}

	thread := models.Thread{CategoryID: categoryID, UserID: caller.UserID, Title: title}
	post := models.Post{UserID: caller.UserID, Content: content}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, categoryID); err != nil {
			return err
		}
		if err := tx.Create(&thread).Error; err != nil {
			return err
		}
		post.ThreadID = thread.ID
		return tx.Create(&post).Error
	})
	if err != nil {
		return "", wrap("create thread", err)
	}

	s.publish(messaging.SubjectThreadCreated, messaging.ThreadCreatedEvent{
		ThreadID:   thread.ID,
		CategoryID: categoryID,
		PostID:     post.ID,
		UserID:     caller.UserID,
		Title:      title,
		Timestamp:  messaging.Timestamp(thread.CreatedAt),
	})
	return thread.ID, nil
}

// CreatePost adds a reply to an open thread and bumps the thread's
// updated_at.
func (s *Service) CreatePost(ctx context.Context, caller auth.Caller, threadID, content string) (string, error) {
	if err := caller.Require(); err != nil {
		return "", err
	}
	if threadID == "" {
		return "", apperror.Invalid("Thread ID and content are required")
	}
	if content == "" {
		return "", apperror.Invalid("Content cannot be empty")
	}

	post := models.Post{ThreadID: threadID, UserID: caller.UserID, Content: content}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Select("id, is_locked").Where("id = ?", threadID).Take(&thread).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Missing("Thread not found")
			}
			return err
		}
		if thread.IsLocked {
			return apperror.Denied("Thread is locked")
		}
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).
			Where("id = ?", threadID).
			Update("updated_at", post.CreatedAt).Error
	})
	if err != nil {
		return "", wrap("create post", err)
	}

	s.publish(messaging.SubjectPostCreated, messaging.PostCreatedEvent{
		PostID:    post.ID,
		ThreadID:  threadID,
		UserID:    caller.UserID,
		Timestamp: messaging.Timestamp(post.CreatedAt),
	})
	return post.ID, nil
}

// EditPost replaces a post's content. Only the author may edit.
func (s *Service) EditPost(ctx context.Context, caller auth.Caller, postID, content string) error {
	if err := caller.Require(); err != nil {
		return err
	}
	if content == "" {
		return apperror.Invalid("Content cannot be empty")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := ownedPost(tx, postID, caller, "You can only edit your own posts")
		if err != nil {
			return err
		}
		return tx.Model(post).Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
		}).Error
	})
	return wrap("edit post", err)
}

// DeletePost removes a post and its likes. Removing the last post of a
// thread removes the thread as well.
func (s *Service) DeletePost(ctx context.Context, caller auth.Caller, postID string) error {
	if err := caller.Require(); err != nil {
		return err
	}

	var post *models.Post
	threadDeleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		post, err = ownedPost(tx, postID, caller, "You can only delete your own posts")
		if err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(post).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Post{}).Where("thread_id = ?", post.ThreadID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			threadDeleted = true
			return tx.Delete(&models.Thread{ID: post.ThreadID}).Error
		}
		return nil
	})
	if err != nil {
		return wrap("delete post", err)
	}

	s.publish(messaging.SubjectPostDeleted, messaging.PostDeletedEvent{
		PostID:        post.ID,
		ThreadID:      post.ThreadID,
		UserID:        caller.UserID,
		ThreadDeleted: threadDeleted,
		Timestamp:     messaging.Timestamp(time.Now()),
	})
	return nil
}

// LikePost records the caller's like and returns the new like count. The
// like row and the counter change commit together.
func (s *Service) LikePost(ctx context.Context, caller auth.Caller, postID string) (int, error) {
	if err := caller.Require(); err != nil {
		return 0, err
	}

	db := s.db.WithContext(ctx)

	// Check if user already liked the post
	var existing models.PostLike
	err := db.Where("post_id = ? AND user_id = ?", postID, caller.UserID).Take(&existing).Error
	if err == nil {
		return 0, apperror.Duplicate("Already liked")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("like post: %w", err)
	}

	var post models.Post
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", postID).Take(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Missing("Post not found")
			}
			return err
		}

		like := models.PostLike{PostID: postID, UserID: caller.UserID}
		if err := tx.Create(&like).Error; err != nil {
			// A concurrent like by the same user lost the race on the unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Duplicate("Already liked")
			}
			return err
		}

		if err := bumpLikes(tx, postID, 1); err != nil {
			return err
		}
		return tx.Select("id, like_count").Where("id = ?", postID).Take(&post).Error
	})
	if err != nil {
		return 0, wrap("like post", err)
	}

	s.publish(messaging.SubjectPostLiked, messaging.PostLikeEvent{
		PostID:    postID,
		UserID:    caller.UserID,
		Likes:     post.LikeCount,
		Timestamp: messaging.Timestamp(time.Now()),
	})
	return post.LikeCount, nil
}

// UnlikePost removes the caller's like and returns the new like count.
func (s *Service) UnlikePost(ctx context.Context, caller auth.Caller, postID string) (int, error) {
	if err := caller.Require(); err != nil {
		return 0, err
	}

	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, caller.UserID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.Missing("Not liked")
		}

		if err := bumpLikes(tx, postID, -1); err != nil {
			return err
		}
		return tx.Select("id, like_count").Where("id = ?", postID).Take(&post).Error
	})
	if err != nil {
		return 0, wrap("unlike post", err)
	}

	s.publish(messaging.SubjectPostUnliked, messaging.PostLikeEvent{
		PostID:    postID,
		UserID:    caller.UserID,
		Likes:     post.LikeCount,
		Timestamp: messaging.Timestamp(time.Now()),
	})
	return post.LikeCount, nil
}

// UserPosts returns a user's posts, newest first.
func (s *Service) UserPosts(ctx context.Context, userID string) ([]UserPost, error) {
	posts := []UserPost{}
	err := s.db.WithContext(ctx).
		Table("forum_posts AS p").
		Select("p.*, t.title AS thread_title").
		Joins("JOIN forum_threads t ON t.id = p.thread_id").
		Where("p.user_id = ?", userID).
		Order("p.created_at DESC").
		Scan(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return posts, nil
}

// UserLikedPosts returns the posts a user liked, most recent like first.
// Likes are private: only the user may list them.
func (s *Service) UserLikedPosts(ctx context.Context, caller auth.Caller, targetUserID string) ([]UserPost, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	if caller.UserID != targetUserID {
		return nil, apperror.Denied("You can only view your own liked posts")
	}

	posts := []UserPost{}
	err := s.db.WithContext(ctx).
		Table("post_likes AS l").
		Select("p.*, t.title AS thread_title").
		Joins("JOIN forum_posts p ON p.id = l.post_id").
		Joins("JOIN forum_threads t ON t.id = p.thread_id").
		Where("l.user_id = ?", targetUserID).
		Order("l.created_at DESC").
		Scan(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list liked posts: %w", err)
	}
	return posts, nil
}

// SetLocked and SetPinned are administrative; no user-facing operation
// reaches them. Neither bumps updated_at.
func (s *Service) SetLocked(ctx context.Context, threadID string, locked bool) error {
	return s.setFlag(ctx, threadID, "is_locked", locked)
}

func (s *Service) SetPinned(ctx context.Context, threadID string, pinned bool) error {
	return s.setFlag(ctx, threadID, "is_pinned", pinned)
}

func (s *Service) setFlag(ctx context.Context, threadID, column string, value bool) error {
	res := s.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", threadID).UpdateColumn(column, value)
	if res.Error != nil {
		return fmt.Errorf("set %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Missing("Thread not found")
	}
	return nil
}

func categoryExists(db *gorm.DB, categoryID string) error {
	var count int64
	if err := db.Model(&models.ForumCategory{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperror.Missing("Category not found")
	}
	return nil
}

func ownedPost(tx *gorm.DB, postID string, caller auth.Caller, deniedMsg string) (*models.Post, error) {
	var post models.Post
	if err := tx.Where("id = ?", postID).Take(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Missing("Post not found")
		}
		return nil, err
	}
	if post.UserID != caller.UserID {
		return nil, apperror.Denied(deniedMsg)
	}
	return &post, nil
}

func bumpLikes(tx *gorm.DB, postID string, delta int) error {
	return tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

// wrap passes typed failures through untouched and annotates store errors.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.KindOf(err) != apperror.Internal {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) publish(subject string, event interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, event); err != nil {
		log.Printf("Failed to publish %s: %v", subject, err)
	}
}
