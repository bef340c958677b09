package sos

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Daskott/haven/shared"
)

type sentSMS struct {
	to   string
	body string
}

type fakeSmsSender struct {
	mu     sync.Mutex
	sent   []sentSMS
	failTo map[string]bool
}

func (f *fakeSmsSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failTo[to] {
		return "", errors.New("invalid 'To' phone number")
	}

	f.sent = append(f.sent, sentSMS{to: to, body: body})
	return fmt.Sprintf("SM%d", len(f.sent)), nil
}

type fakePushSender struct {
	messages []shared.PushMessage
	err      error
	failing  map[string]bool
}

func (f *fakePushSender) SendMulticast(ctx context.Context, msg shared.PushMessage) (*shared.PushResult, error) {
	f.messages = append(f.messages, msg)
	if f.err != nil {
		return nil, f.err
	}

	result := &shared.PushResult{Responses: []shared.TokenResult{}}
	for _, token := range msg.Tokens {
		if f.failing[token] {
			errMsg := "requested entity was not found"
			result.FailureCount++
			result.Responses = append(result.Responses, shared.TokenResult{Token: token, Error: &errMsg})
			continue
		}
		result.SuccessCount++
		result.Responses = append(result.Responses, shared.TokenResult{Token: token, Success: true})
	}

	return result, nil
}
