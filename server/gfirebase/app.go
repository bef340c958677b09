package gfirebase

import (
	"context"
	"encoding/json"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/Daskott/haven/shared"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// NewApp initializes a firebase app from an inline service account (preferred),
// a credentials file or application default credentials, in that order.
func NewApp(ctx context.Context, config shared.FirebaseConfig) (*firebase.App, error) {
	opts, err := clientOptions(config)
	if err != nil {
		return nil, err
	}

	var appConfig *firebase.Config
	if config.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: config.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "gfirebase: unable to initialize app")
	}

	return app, nil
}

func clientOptions(config shared.FirebaseConfig) ([]option.ClientOption, error) {
	switch {
	case config.ServiceAccountJSON != "":
		credentials, err := normalizeServiceAccountJSON(config.ServiceAccountJSON)
		if err != nil {
			return nil, err
		}
		return []option.ClientOption{option.WithCredentialsJSON(credentials)}, nil
	case config.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(config.CredentialsFile)}, nil
	}

	return nil, nil
}

// normalizeServiceAccountJSON turns escaped "\n" sequences in private_key into newlines,
// which is how the key usually ends up after being pasted into an env var.
func normalizeServiceAccountJSON(raw string) ([]byte, error) {
	serviceAccount := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &serviceAccount); err != nil {
		return nil, errors.Wrap(err, "gfirebase: invalid service account json")
	}

	if key, ok := serviceAccount["private_key"].(string); ok {
		serviceAccount["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}

	return json.Marshal(serviceAccount)
}
