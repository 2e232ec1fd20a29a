package dispatch

import (
	"context"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

type ISendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridDispatcher struct {
	SendClient  ISendClient
	SenderEmail string
	HtmlBody    bool
	Logger      *logrus.Logger
}

func NewSendGridDispatcher(apiKey string, senderEmail string, htmlBody bool, logger *logrus.Logger) *SendGridDispatcher {
	return &SendGridDispatcher{
		SendClient:  sendgrid.NewSendClient(apiKey),
		SenderEmail: senderEmail,
		HtmlBody:    htmlBody,
		Logger:      logger,
	}
}

func (dispatcher *SendGridDispatcher) Dispatch(ctx context.Context, content string, subject string, recipient string) error {
	contentType := "text/plain"
	if dispatcher.HtmlBody {
		contentType = "text/html"
	}

	message := mail.NewV3MailInit(
		mail.NewEmail("", dispatcher.SenderEmail),
		subject,
		mail.NewEmail("", recipient),
		mail.NewContent(contentType, content),
	)

	dispatcher.Logger.Infof("Sending report to %s", recipient)
	response, err := dispatcher.SendClient.SendWithContext(ctx, message)
	if err != nil {
		return &DispatchError{Recipient: recipient, Message: err.Error(), Err: err}
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &DispatchError{Recipient: recipient, StatusCode: response.StatusCode, Message: response.Body}
	}

	dispatcher.Logger.Debugf("SendGrid accepted report with status %d", response.StatusCode)
	return nil
}
