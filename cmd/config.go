/*
Copyright © 2021 Edmond Cotterell

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	devConfig "github.com/Daskott/haven/dev/config"
	"github.com/Daskott/haven/shared"
	"github.com/go-playground/validator"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var serverConfigFile string

var defaultAllowedOrigins = []string{
	"http://localhost:5000",
	"http://127.0.0.1:5000",
	"http://localhost:5500",
	"https://women-saftey-a3bac.web.app",
	"https://women-safety-app-78gl.onrender.com",
}

// envBindings maps config keys to the env vars that override them
var envBindings = [][2]string{
	{"haven.listener.port", "PORT"},
	{"twilio.accountSid", "TWILIO_ACCOUNT_SID"},
	{"twilio.authToken", "TWILIO_AUTH_TOKEN"},
	{"twilio.phoneNumber", "TWILIO_PHONE_NUMBER"},
	{"twilio.messagingServiceSid", "TWILIO_MESSAGING_SERVICE_SID"},
	{"firebase.serviceAccountJson", "FIREBASE_SERVICE_ACCOUNT_JSON"},
	{"google.applicationCredentials", "GOOGLE_APPLICATION_CREDENTIALS"},
	{"sqlite.passPhrase", "HAVEN_SQLITE_PASSPHRASE"},
}

// loadServerConfig reads & fully validates the config the server runs with
func loadServerConfig(configFile string, devMode bool) (*shared.ServerConfig, error) {
	serverConfig, err := readServerConfig(configFile, devMode)
	if err != nil {
		return nil, err
	}

	if errs := serverConfig.CheckDependencies(); len(errs) > 0 {
		return nil, formattedError("invalid server config:\n%v", strings.Join(errs, "\n"))
	}

	return serverConfig, nil
}

// readServerConfig reads the server config from 'configFile', the bundled
// dev config in dev mode, or only defaults & env vars when neither is set.
func readServerConfig(configFile string, devMode bool) (*shared.ServerConfig, error) {
	// A missing .env file is fine, env vars may come from the environment itself
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, warningLabel, "unable to load .env:", err)
	}

	config := viper.New()
	setDefaults(config)

	for _, binding := range envBindings {
		if err := config.BindEnv(binding[0], binding[1]); err != nil {
			return nil, err
		}
	}

	switch {
	case configFile != "":
		config.SetConfigFile(configFile)
		if err := config.ReadInConfig(); err != nil {
			return nil, formattedError("error reading server config file: %v", err)
		}
	case devMode:
		config.SetConfigType("yaml")
		if err := config.ReadConfig(strings.NewReader(devConfig.SERVER_YML)); err != nil {
			return nil, formattedError("error reading dev server config: %v", err)
		}
	}

	serverConfig := &shared.ServerConfig{}
	if err := config.Unmarshal(serverConfig); err != nil {
		return nil, formattedError("invalid server config: %v", err)
	}

	if devMode {
		serverConfig.Twilio.Dev = true
		serverConfig.Firebase.Dev = true
	}

	if err := validator.New().Struct(serverConfig); err != nil {
		return nil, formattedError("invalid server config:\n%v", err)
	}

	return serverConfig, nil
}

func setDefaults(config *viper.Viper) {
	config.SetDefault("haven.listener.host", "0.0.0.0")
	config.SetDefault("haven.listener.port", 5000)
	config.SetDefault("haven.cors.allowedOrigins", defaultAllowedOrigins)
	config.SetDefault("haven.alerts.smsConcurrency", 1)
	config.SetDefault("haven.cron.timeZone", "UTC")
	config.SetDefault("store.driver", shared.FIRESTORE_STORE)
}
