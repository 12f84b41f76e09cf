package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"gopherblog/internal/model"
)

// listOrder sorts newest first; the id tiebreak keeps insertion order stable
// for posts sharing a creation timestamp.
const listOrder = "created_at DESC, id ASC"

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{db: tx}
}

func (r *PostRepository) Create(post *model.Post) error {
	if err := r.db.Create(post).Error; err != nil {
		return fmt.Errorf("create post failed: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query post by id failed: %w", err)
	}
	return &post, nil
}

// ListAll returns every post, newest first. A non-empty search term
// restricts the result to posts whose title or content contains the term,
// case-insensitively.
func (r *PostRepository) ListAll(search string) ([]model.Post, error) {
	query := r.db.Order(listOrder)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", like, like)
	}

	var posts []model.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts failed: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) ListByOwner(ownerID uint) ([]model.Post, error) {
	var posts []model.Post
	if err := r.db.Where("user_id = ?", ownerID).Order(listOrder).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts by owner failed: %w", err)
	}
	return posts, nil
}

// Update rewrites title and content only; creation timestamp and owner are
// immutable.
func (r *PostRepository) Update(id uint, title, content string) error {
	result := r.db.Model(&model.Post{}).Where("id = ?", id).
		Updates(map[string]any{"title": title, "content": content})
	if result.Error != nil {
		return fmt.Errorf("update post failed: %w", result.Error)
	}
	return nil
}

func (r *PostRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Post{}, id).Error; err != nil {
		return fmt.Errorf("delete post failed: %w", err)
	}
	return nil
}

// DeleteByOwner removes every post owned by the given user. Called inside
// the account-deletion transaction so the user and their posts go together.
func (r *PostRepository) DeleteByOwner(ownerID uint) error {
	if err := r.db.Where("user_id = ?", ownerID).Delete(&model.Post{}).Error; err != nil {
		return fmt.Errorf("delete posts by owner failed: %w", err)
	}
	return nil
}
