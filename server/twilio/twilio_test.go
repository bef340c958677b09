package twilio

import (
	"context"
	"testing"

	"github.com/Daskott/haven/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

func TestSendSMSInDevMode(t *testing.T) {
	client := NewClient(shared.TwilioConfig{Dev: true}, false)

	sid, err := client.SendSMS(context.Background(), "+2025550123", "SOS Alert!")
	require.NoError(t, err)
	assert.Regexp(t, `^SM[0-9a-f]{32}$`, sid)

	other, err := client.SendSMS(context.Background(), "+2025550123", "SOS Alert!")
	require.NoError(t, err)
	assert.NotEqual(t, sid, other)
}

func TestSendSMSCancelledContext(t *testing.T) {
	client := NewClient(shared.TwilioConfig{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SendSMS(ctx, "+2025550123", "SOS Alert!")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMessageParams(t *testing.T) {
	t.Run("Should send from phone number", func(t *testing.T) {
		client := &ClientWrapper{config: shared.TwilioConfig{PhoneNumber: "+15005550006"}}
		params := client.messageParams("+2025550123", "hello")

		require.NotNil(t, params.From)
		assert.Equal(t, "+15005550006", *params.From)
		assert.Nil(t, params.MessagingServiceSid)
		assert.Equal(t, "+2025550123", *params.To)
		assert.Equal(t, "hello", *params.Body)
	})

	t.Run("Should prefer messaging service", func(t *testing.T) {
		client := &ClientWrapper{config: shared.TwilioConfig{PhoneNumber: "+15005550006", MessagingServiceSid: "MG123"}}
		params := client.messageParams("+2025550123", "hello")

		require.NotNil(t, params.MessagingServiceSid)
		assert.Equal(t, "MG123", *params.MessagingServiceSid)
		assert.Nil(t, params.From)
	})
}

func TestMessageSid(t *testing.T) {
	sid := "SM123"
	empty := ""
	errorMessage := "The 'To' number is not a valid phone number."

	testCases := []struct {
		description string
		resp        *openapi.ApiV2010Message
		expectedSid string
		expectedErr string
	}{
		{
			description: "Should return sid of queued message",
			resp:        &openapi.ApiV2010Message{Sid: &sid},
			expectedSid: sid,
		},
		{
			description: "Should fail when twilio reports an error",
			resp:        &openapi.ApiV2010Message{Sid: &sid, ErrorMessage: &errorMessage},
			expectedErr: errorMessage,
		},
		{
			description: "Should fail without a sid",
			resp:        &openapi.ApiV2010Message{},
			expectedErr: ErrNoMessageSid.Error(),
		},
		{
			description: "Should fail with an empty sid",
			resp:        &openapi.ApiV2010Message{Sid: &empty},
			expectedErr: ErrNoMessageSid.Error(),
		},
	}

	for _, tcase := range testCases {
		t.Run(tcase.description, func(t *testing.T) {
			sid, err := messageSid(tcase.resp)
			if tcase.expectedErr != "" {
				assert.EqualError(t, err, tcase.expectedErr)
				assert.Empty(t, sid)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tcase.expectedSid, sid)
		})
	}
}
