package support

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type SupportUseCase interface {
	Submit(ctx context.Context, input MessageInput) (*domain.Message, error)
	List(ctx context.Context) ([]domain.Message, error)
	Delete(ctx context.Context, id string) error
}

type MessageInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SupportService is the inbox behind the contact form.
type SupportService struct {
	repo repository.MessageRepository
	log  logrus.FieldLogger
}

func NewSupportService(repo repository.MessageRepository, log logrus.FieldLogger) *SupportService {
	return &SupportService{repo: repo, log: log}
}

func (s *SupportService) Submit(ctx context.Context, input MessageInput) (*domain.Message, error) {
	msg := &domain.Message{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Message: strings.TrimSpace(input.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, domain.ErrMissingFields
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.log.WithField("message_id", msg.ID).Info("support message received")
	return msg, nil
}

func (s *SupportService) List(ctx context.Context) ([]domain.Message, error) {
	return s.repo.List(ctx)
}

func (s *SupportService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrMessageNotFound
	}
	return err
}

var _ SupportUseCase = (*SupportService)(nil)
