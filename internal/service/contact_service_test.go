package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dajtovon/internal/mail"
	"dajtovon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSender is a mock of the mail.Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func newContactFixture() (*ContactService, *MockSender) {
	users := &userRepoStub{users: map[string]*models.User{
		"bob":   {Username: "bob", Email: "bob@example.com"},
		"alice": {Username: "alice", Email: "alice@example.com"},
	}}
	sender := &MockSender{}
	svc := NewContactService(users, contentOwnedBy("c1", "bob"), sender,
		"noreply@example.com", "inbox@example.com", time.Second)
	return svc, sender
}

func TestContactService_ContactPage(t *testing.T) {
	svc, sender := newContactFixture()
	ctx := context.Background()

	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "inbox@example.com" &&
			msg.ReplyTo == "vis@example.com" &&
			msg.Subject == "Contact form message" &&
			strings.Contains(msg.Body, "hello")
	})).Return(nil).Once()

	assert.NoError(t, svc.SendContactPage(ctx, ContactPageInput{Name: "Vis", Email: "vis@example.com", Message: "hello"}))

	assertValidationError(t, svc.SendContactPage(ctx, ContactPageInput{Email: "nope", Message: "hi"}))
	assertValidationError(t, svc.SendContactPage(ctx, ContactPageInput{Email: "a@example.com"}))
	assertValidationError(t, svc.SendContactPage(ctx, ContactPageInput{
		Email: "a@example.com", Message: strings.Repeat("x", 5001),
	}))
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestContactService_ContactAuthor(t *testing.T) {
	svc, sender := newContactFixture()
	ctx := context.Background()

	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "bob@example.com" &&
			msg.ReplyTo == "alice@example.com" &&
			strings.Contains(msg.Subject, "Topic c1")
	})).Return(nil).Once()

	assert.NoError(t, svc.ContactAuthor(ctx, ContactAuthorInput{Sender: "alice", ContentID: "c1", Message: "love it"}))

	assertValidationError(t, svc.ContactAuthor(ctx, ContactAuthorInput{Sender: "bob", ContentID: "c1", Message: "me"}))
	assertUnauthorizedError(t, svc.ContactAuthor(ctx, ContactAuthorInput{ContentID: "c1", Message: "hi"}))
	assertCode(t, svc.ContactAuthor(ctx, ContactAuthorInput{Sender: "alice", ContentID: "x", Message: "hi"}), models.CodeNotFound)
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestContactService_SenderFailure(t *testing.T) {
	svc, sender := newContactFixture()
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("relay down"))

	err := svc.ContactAuthor(context.Background(), ContactAuthorInput{Sender: "alice", ContentID: "c1", Message: "hi"})
	assertCode(t, err, models.CodeInternal)
	sender.AssertExpectations(t)
}
