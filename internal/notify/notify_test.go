package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/talent-pipeline/internal/config"
	"github.com/jonathan/talent-pipeline/internal/types"
)

func TestNew_SelectsImplementation(t *testing.T) {
	_, isLog := New(config.SMTPConfig{}, nil).(*LogNotifier)
	assert.True(t, isLog)

	_, isSMTP := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587}, nil).(*SMTPNotifier)
	assert.True(t, isSMTP)
}

func TestLogNotifier_Send(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", Body: "Body"}))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@example.com", entries[0].ContextMap()["to"])

	assert.Error(t, n.Send(context.Background(), Message{}))
}

func TestSMTPNotifier_Send(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "noreply@example.com"}
	n := NewSMTPNotifier(cfg, nil)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := n.Send(context.Background(), Message{To: "c@example.com", Subject: "Line\r\nBcc: x", Body: "one\ntwo"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"c@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Line  Bcc: x\r\n")
	assert.Contains(t, string(gotMsg), "one\r\ntwo")
}

func TestSMTPNotifier_SendError(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 25}, nil)
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("550 mailbox unavailable")
	}
	err := n.Send(context.Background(), Message{To: "c@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")
}

func TestSMTPNotifier_CancelledContext(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 25}, nil)
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("must not dial with a cancelled context")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, Message{To: "c@example.com"}), context.Canceled)
}

func TestOfferAssigned(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	msg := OfferAssigned(
		&types.User{ID: uuid.New(), Name: "Rita", Email: "rita@example.com"},
		&types.Offer{JobTitle: "SRE", CompanyName: "Acme", Priority: types.PriorityHigh, DueDate: &due, Skills: []string{"Go", "K8s"}},
	)
	assert.Equal(t, "rita@example.com", msg.To)
	assert.Contains(t, msg.Subject, "SRE")
	assert.Contains(t, msg.Body, "Acme")
	assert.Contains(t, msg.Body, "2026-03-01")
	assert.Contains(t, msg.Body, "Go, K8s")
}

func TestJDInvite(t *testing.T) {
	msg := JDInvite(
		&types.Candidate{Name: "Ana", Email: "ana@example.com"},
		&types.JobDescription{JobSummary: "Build platforms", CompanyName: "Acme"},
		"https://jobs.example.com/public/jd/abc",
	)
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Contains(t, msg.Body, "Acme is hiring")
	assert.Contains(t, msg.Body, "https://jobs.example.com/public/jd/abc")
}
