package twilio

import (
	"context"
	"errors"
	"strings"

	"github.com/Daskott/haven/server/logger"
	"github.com/Daskott/haven/shared"
	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var logg = logger.NewLogger()

var ErrNoMessageSid = errors.New("twilio returned no message sid")

type ClientWrapper struct {
	client  *twilio.RestClient
	config  shared.TwilioConfig
	devMode bool
}

// NewClient returns an sms sender. In dev mode messages are logged & never sent.
func NewClient(config shared.TwilioConfig, devMode bool) *ClientWrapper {
	wrapper := &ClientWrapper{config: config, devMode: devMode || config.Dev}
	if wrapper.devMode {
		return wrapper
	}

	wrapper.client = twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return wrapper
}

// SendSMS sends 'body' to 'to' & returns the message sid.
// Messages go out through the messaging service when one is configured.
func (cw *ClientWrapper) SendSMS(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if cw.devMode {
		sid := "SM" + strings.ReplaceAll(uuid.NewString(), "-", "")
		logg.Infof("[dev] sms to %v (sid=%v):\n%v", to, sid, body)
		return sid, nil
	}

	resp, err := cw.client.ApiV2010.CreateMessage(cw.messageParams(to, body))
	if err != nil {
		return "", err
	}

	return messageSid(resp)
}

// messageSid only accepts messages twilio assigned a sid to
func messageSid(resp *openapi.ApiV2010Message) (string, error) {
	if resp.ErrorMessage != nil {
		return "", errors.New(*resp.ErrorMessage)
	}

	if resp.Sid == nil || *resp.Sid == "" {
		return "", ErrNoMessageSid
	}

	return *resp.Sid, nil
}

func (cw *ClientWrapper) messageParams(to, body string) *openapi.CreateMessageParams {
	params := &openapi.CreateMessageParams{}
	if cw.config.MessagingServiceSid != "" {
		params.SetMessagingServiceSid(cw.config.MessagingServiceSid)
	} else {
		params.SetFrom(cw.config.PhoneNumber)
	}
	params.SetTo(to)
	params.SetBody(body)

	return params
}
