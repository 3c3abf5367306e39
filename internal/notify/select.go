package notify

import (
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// ProviderOptions carries everything SelectEmailSender may need.
type ProviderOptions struct {
	Provider  string // sendgrid, ses, stub or auto
	SendGrid  SendGridConfig
	SESClient SESAPI
	SES       SESConfig
}

// SelectEmailSender picks a sender for the configured provider. "auto"
// prefers SendGrid, then SES, then the stub.
func SelectEmailSender(opts ProviderOptions, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	sendgridReady := opts.SendGrid.APIKey != "" && opts.SendGrid.FromEmail != ""
	sesReady := opts.SESClient != nil && opts.SES.FromEmail != ""

	switch opts.Provider {
	case "stub":
		return NewStubEmailSender(logger)
	case "sendgrid":
		if sendgridReady {
			return NewSendGridSender(opts.SendGrid, logger)
		}
	case "ses":
		if sesReady {
			return NewSESSender(opts.SESClient, opts.SES, logger)
		}
	default:
		if sendgridReady {
			return NewSendGridSender(opts.SendGrid, logger)
		}
		if sesReady {
			return NewSESSender(opts.SESClient, opts.SES, logger)
		}
	}
	logger.Warn("appointment emails disabled, no email provider configured", "provider", opts.Provider)
	return NewStubEmailSender(logger)
}
