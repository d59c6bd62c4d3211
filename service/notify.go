package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/models"
)

// OverdueNotice is one overdue loan to tell a borrower about.
type OverdueNotice struct {
	Email       string
	Name        string
	Book        models.Book
	DaysOverdue int
}

type Notifier interface {
	NotifyOverdue(ctx context.Context, n OverdueNotice) error
}

type mailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPNotifier e-mails borrowers through an SMTP relay.
type SMTPNotifier struct {
	From   string
	sender mailSender
}

func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.Timeout = 10 * time.Second
	return &SMTPNotifier{From: from, sender: d}
}

func (n *SMTPNotifier) NotifyOverdue(ctx context.Context, notice OverdueNotice) error {
	if notice.Email == "" {
		return fmt.Errorf("overdue notice for %s: borrower has no e-mail", notice.Book.ID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := mail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetAddressHeader("To", notice.Email, notice.Name)
	m.SetHeader("Subject", "Overdue: "+notice.Book.Title)
	m.SetBody("text/plain", overdueBody(notice))
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send overdue notice: %w", err)
	}
	return nil
}

func overdueBody(n OverdueNotice) string {
	name := n.Name
	if name == "" {
		name = "reader"
	}
	days := fmt.Sprintf("%d days", n.DaysOverdue)
	if n.DaysOverdue == 1 {
		days = "1 day"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)
	fmt.Fprintf(&b, "%q by %s is %s overdue.\n", n.Book.Title, n.Book.Author, days)
	if n.Book.DueDate != nil {
		fmt.Fprintf(&b, "It was due on %s.\n", n.Book.DueDate.Format("2006-01-02"))
	}
	b.WriteString("Please return it to the library desk.\n")
	return b.String()
}

// LogNotifier writes notices to the log. Used when SMTP is not configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) NotifyOverdue(ctx context.Context, notice OverdueNotice) error {
	n.Logger.Info("overdue notice",
		zap.String("bookId", notice.Book.ID),
		zap.String("title", notice.Book.Title),
		zap.String("borrower", notice.Book.IssuedTo),
		zap.String("email", notice.Email),
		zap.Int("daysOverdue", notice.DaysOverdue),
	)
	return nil
}
