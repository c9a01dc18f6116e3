package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"dajtovon/internal/mail"
	"dajtovon/internal/models"
	"dajtovon/internal/repository"
	"dajtovon/internal/validation"
)

const (
	maxContactMessageLen = 5000
	maxContactSubjectLen = 200
)

// ContactService relays visitor and member messages by mail.
type ContactService struct {
	userRepo     repository.UserRepository
	contentRepo  repository.ContentRepository
	sender       mail.Sender
	from         string
	inbox        string
	storeTimeout time.Duration
}

type ContactPageInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

type ContactAuthorInput struct {
	Sender    string
	ContentID string
	Message   string
}

func NewContactService(
	userRepo repository.UserRepository,
	contentRepo repository.ContentRepository,
	sender mail.Sender,
	from, inbox string,
	storeTimeout time.Duration,
) *ContactService {
	return &ContactService{
		userRepo:     userRepo,
		contentRepo:  contentRepo,
		sender:       sender,
		from:         from,
		inbox:        inbox,
		storeTimeout: storeTimeout,
	}
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", models.NewValidationError("Message is required")
	}
	if utf8.RuneCountInString(message) > maxContactMessageLen {
		return "", models.NewValidationError("Message too long (max 5000 characters)")
	}
	return message, nil
}

// SendContactPage forwards a message from the public contact form to the site inbox.
func (s *ContactService) SendContactPage(ctx context.Context, in ContactPageInput) error {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return models.NewValidationError(err.Error())
	}
	message, err := validateMessage(in.Message)
	if err != nil {
		return err
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = "Contact form message"
	}
	if utf8.RuneCountInString(subject) > maxContactSubjectLen {
		return models.NewValidationError("Subject too long (max 200 characters)")
	}

	body := message
	if name := strings.TrimSpace(in.Name); name != "" {
		body = fmt.Sprintf("From: %s <%s>\n\n%s", name, in.Email, message)
	}
	if err := s.sender.Send(ctx, mail.Message{
		From:    s.from,
		To:      s.inbox,
		ReplyTo: in.Email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ContactAuthor mails the author of a content item on behalf of a member.
func (s *ContactService) ContactAuthor(ctx context.Context, in ContactAuthorInput) error {
	if in.Sender == "" {
		return models.NewUnauthorizedError("Authentication required")
	}
	message, err := validateMessage(in.Message)
	if err != nil {
		return err
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	content, err := s.contentRepo.GetByID(storeCtx, in.ContentID)
	if err != nil {
		return storeError(err, "Content", in.ContentID)
	}
	if content.Author == in.Sender {
		return models.NewValidationError("You cannot contact yourself")
	}

	author, err := s.userRepo.GetByUsername(storeCtx, content.Author)
	if err != nil {
		return models.NewStoreError(err)
	}
	if author == nil {
		return models.NewNotFoundError("User", content.Author)
	}
	sender, err := s.userRepo.GetByUsername(storeCtx, in.Sender)
	if err != nil {
		return models.NewStoreError(err)
	}
	replyTo := ""
	if sender != nil {
		replyTo = sender.Email
	}

	if err := s.sender.Send(ctx, mail.Message{
		From:    s.from,
		To:      author.Email,
		ReplyTo: replyTo,
		Subject: fmt.Sprintf("%s sent you a message about %q", in.Sender, content.Topic),
		Body:    message,
	}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
