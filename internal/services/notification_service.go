package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rooklabs/marquee/internal/models"
	pkglogger "github.com/rooklabs/marquee/pkg/logger"
)

// EmailSender delivers an upcoming-release notification to a single user
type EmailSender interface {
	SendUpcomingMovieEmail(ctx context.Context, user *models.User, movie *models.Movie) error
}

// AWSSESEmailService sends notification emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendUpcomingMovieEmail notifies a user that a movie is about to release
func (s *AWSSESEmailService) SendUpcomingMovieEmail(ctx context.Context, user *models.User, movie *models.Movie) error {
	releaseDate := "soon"
	if movie.ReleaseDate != nil {
		releaseDate = movie.ReleaseDate.Format("02/01/2006")
	}

	subject := fmt.Sprintf("Coming soon: %s!", movie.Name)

	htmlBody := fmt.Sprintf(`
<h1>Hi, %s!</h1>
<p>We have news you are going to love!</p>
<p>The movie <strong>%s</strong> hits theaters on <strong>%s</strong>.</p>
<p>Get the popcorn ready!</p>
`, user.Name, movie.Name, releaseDate)

	textBody := fmt.Sprintf(
		"Hi, %s!\n\nThe movie %s hits theaters on %s.\n\nGet the popcorn ready!\n",
		user.Name, movie.Name, releaseDate,
	)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{user.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send notification email via SES",
			slog.String("email", pkglogger.SanitizedEmail(user.Email)),
			slog.String("movie_id", movie.ID),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("notification email sent",
		slog.String("email", pkglogger.SanitizedEmail(user.Email)),
		slog.String("movie_id", movie.ID),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
