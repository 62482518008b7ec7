package delivery

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesSender struct {
	client *ses.Client
	from   string
}

// NewSES returns a sender that delivers notifications through Amazon
// SES. The from address must be verified in the SES account.
func NewSES(cfg awssdk.Config, from string) Sender {
	return &sesSender{
		client: ses.NewFromConfig(cfg),
		from:   from,
	}
}

func (s *sesSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("notification has no recipient")
	}

	_, err := s.client.SendEmail(ctx, buildEmailInput(s.from, msg))
	if err != nil {
		return fmt.Errorf("failed to send notification to %s: %w", msg.To, err)
	}
	return nil
}

func buildEmailInput(from string, msg Message) *ses.SendEmailInput {
	subject := fmt.Sprintf("Your %s report for %s is ready", msg.ReportType, msg.Account)
	body := fmt.Sprintf(
		"Hello,\n\nThe %s report for account %s has finished generating.\n\nDownload it here: %s\n",
		msg.ReportType, msg.Account, msg.DownloadURL,
	)

	return &ses.SendEmailInput{
		Source: awssdk.String(from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Data:    awssdk.String(subject),
				Charset: awssdk.String("UTF-8"),
			},
			Body: &sestypes.Body{
				Text: &sestypes.Content{
					Data:    awssdk.String(body),
					Charset: awssdk.String("UTF-8"),
				},
			},
		},
	}
}
