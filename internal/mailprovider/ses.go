package mailprovider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/ghostpost/internal/config"
)

// SESProvider sends email through AWS SES v2's SendEmail API.
type SESProvider struct {
	client *sesv2.Client
}

// NewSESProvider loads AWS config for cfg.Region and returns a Provider
// bound to it.
func NewSESProvider(ctx context.Context, cfg config.SESConfig) (*SESProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SESProvider{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// Send implements Provider.
func (p *SESProvider) Send(ctx context.Context, from, to, subject, body string) error {
	_, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	return nil
}
