package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type CreateGroupInput struct {
	Title       string
	Slug        string
	Description string
}

// GroupService manages the group catalogue and group listings.
type GroupService struct {
	groups  repository.GroupRepository
	listing *ListingService
}

func NewGroupService(groups repository.GroupRepository, listing *ListingService) *GroupService {
	return &GroupService{groups: groups, listing: listing}
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.groups.GetBySlug(ctx, slug)
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// Page returns the group identified by slug and one page of its posts.
func (s *GroupService) Page(ctx context.Context, slug, rawPage string) (*models.Group, *models.PostPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.listing.Page(ctx, repository.GroupPosts(group.ID), rawPage)
	if err != nil {
		return nil, nil, err
	}
	return group, page, nil
}

func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	title, err := validation.RequiredText("title", in.Title, validation.GroupTitleMaxLength)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	slug := strings.TrimSpace(in.Slug)
	if err := validation.ValidateGroupSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	group := &models.Group{
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes an empty group. Groups that still have posts are protected.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.groups.Delete(ctx, group.ID)
}
