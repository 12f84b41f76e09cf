package app

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"gopherblog/internal/model"
	"gopherblog/internal/repository"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("not the owner of this post")
)

const MaxTitleLen = 160

type PostService struct {
	db       *gorm.DB
	postRepo *repository.PostRepository
}

func NewPostService(db *gorm.DB, postRepo *repository.PostRepository) *PostService {
	return &PostService{db: db, postRepo: postRepo}
}

func validatePostFields(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" || len(title) > MaxTitleLen {
		return "", "", ErrInvalidInput
	}
	return title, content, nil
}

func (s *PostService) Create(ownerID uint, title, content string) (*model.Post, error) {
	if ownerID == 0 {
		return nil, ErrInvalidInput
	}
	title, content, err := validatePostFields(title, content)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:   title,
		Content: content,
		UserID:  ownerID,
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetByID(id uint) (*model.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) ListAll(search string) ([]model.Post, error) {
	return s.postRepo.ListAll(search)
}

func (s *PostService) ListByOwner(ownerID uint) ([]model.Post, error) {
	return s.postRepo.ListByOwner(ownerID)
}

// Update rewrites a post's title and content on behalf of actor. The
// ownership check runs before validation and before any write, inside the
// same transaction as the write itself.
func (s *PostService) Update(actor *model.User, id uint, title, content string) (*model.Post, error) {
	var updated *model.Post
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.postRepo.WithTx(tx)

		post, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrPostNotFound
		}
		if !CanModify(actor, post) {
			return ErrForbidden
		}

		title, content, err = validatePostFields(title, content)
		if err != nil {
			return err
		}
		if err := repo.Update(id, title, content); err != nil {
			return err
		}

		post.Title = title
		post.Content = content
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a post on behalf of actor, subject to the same ownership
// gate as Update.
func (s *PostService) Delete(actor *model.User, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.postRepo.WithTx(tx)

		post, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrPostNotFound
		}
		if !CanModify(actor, post) {
			return ErrForbidden
		}
		return repo.Delete(id)
	})
}
