package shared

// PushMessage is a single multicast push to every token in Tokens.
type PushMessage struct {
	Tokens []string
	Title  string
	Body   string

	// Link is opened when a web push notification is clicked
	Link string
	Data map[string]string
}

// PushResult aggregates the per-token outcomes of a multicast push.
type PushResult struct {
	SuccessCount int           `json:"successCount"`
	FailureCount int           `json:"failureCount"`
	Responses    []TokenResult `json:"responses"`
	Error        string        `json:"error,omitempty"`
}

type TokenResult struct {
	Token   string  `json:"token"`
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

func EmptyPushResult() PushResult {
	return PushResult{Responses: []TokenResult{}}
}
