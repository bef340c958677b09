package fcm

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/Daskott/haven/server/logger"
	"github.com/Daskott/haven/shared"
	"github.com/pkg/errors"
)

var logg = logger.NewLogger()

type Client struct {
	client  *messaging.Client
	devMode bool
}

// NewClient returns a push sender backed by firebase cloud messaging.
// In dev mode pushes are logged & reported as delivered.
func NewClient(ctx context.Context, app *firebase.App, devMode bool) (*Client, error) {
	if devMode {
		return &Client{devMode: true}, nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fcm: unable to create messaging client")
	}

	return &Client{client: client}, nil
}

// SendMulticast sends one push to every token in 'msg'. Per token failures are
// part of the result, the error is only set when the whole call failed.
func (c *Client) SendMulticast(ctx context.Context, msg shared.PushMessage) (*shared.PushResult, error) {
	if c.devMode {
		logg.Infof("[dev] push %q to %v token(s): %v", msg.Title, len(msg.Tokens), msg.Body)
		return devResult(msg.Tokens), nil
	}

	batch, err := c.client.SendEachForMulticast(ctx, multicastMessage(msg))
	if err != nil {
		return nil, err
	}

	return pushResult(msg.Tokens, batch), nil
}

func multicastMessage(msg shared.PushMessage) *messaging.MulticastMessage {
	multicast := &messaging.MulticastMessage{
		Tokens: msg.Tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	if msg.Link != "" {
		multicast.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: msg.Link},
		}
	}

	return multicast
}

// pushResult pairs each response with the token it was sent to, responses
// come back in the same order as the tokens.
func pushResult(tokens []string, batch *messaging.BatchResponse) *shared.PushResult {
	result := &shared.PushResult{
		SuccessCount: batch.SuccessCount,
		FailureCount: batch.FailureCount,
		Responses:    make([]shared.TokenResult, 0, len(batch.Responses)),
	}

	for i, resp := range batch.Responses {
		tokenResult := shared.TokenResult{Success: resp.Success}
		if i < len(tokens) {
			tokenResult.Token = tokens[i]
		}
		if resp.Error != nil {
			errMsg := resp.Error.Error()
			tokenResult.Error = &errMsg
		}
		result.Responses = append(result.Responses, tokenResult)
	}

	return result
}

func devResult(tokens []string) *shared.PushResult {
	result := &shared.PushResult{
		SuccessCount: len(tokens),
		Responses:    make([]shared.TokenResult, 0, len(tokens)),
	}

	for _, token := range tokens {
		result.Responses = append(result.Responses, shared.TokenResult{Token: token, Success: true})
	}

	return result
}
