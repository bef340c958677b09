package models

type User struct {
	BaseModel
	ID           string        `json:"id" gorm:"primarykey"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Phone        string        `json:"phone"`
	Contacts     []Contact     `json:"contacts" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	DeviceTokens []DeviceToken `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Tokens returns the user's push tokens in registration order
func (user *User) Tokens() []string {
	tokens := make([]string, 0, len(user.DeviceTokens))
	for _, deviceToken := range user.DeviceTokens {
		tokens = append(tokens, deviceToken.Token)
	}
	return tokens
}

// HasToken reports whether 'token' is already registered for the user
func (user *User) HasToken(token string) bool {
	for _, deviceToken := range user.DeviceTokens {
		if deviceToken.Token == token {
			return true
		}
	}
	return false
}

// DisplayName is the name shown to people receiving the user's alerts
func (user *User) DisplayName() string {
	if user.Name != "" {
		return user.Name
	}
	return user.ID
}

func DeviceTokensFrom(userID string, tokens []string) []DeviceToken {
	deviceTokens := make([]DeviceToken, 0, len(tokens))
	for _, token := range tokens {
		deviceTokens = append(deviceTokens, DeviceToken{UserID: userID, Token: token})
	}
	return deviceTokens
}
