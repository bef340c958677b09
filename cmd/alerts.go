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
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Daskott/haven/colors"
	"github.com/Daskott/haven/server"
	"github.com/Daskott/haven/server/models"
	"github.com/Daskott/haven/server/sos"
	"github.com/spf13/cobra"
)

// openAlertStore is swapped out in tests
var openAlertStore = func(ctx context.Context, devMode bool) (server.Store, error) {
	config, err := readServerConfig(serverConfigFile, devMode)
	if err != nil {
		return nil, err
	}

	// Nothing is sent from the CLI, so sms & push settings don't matter here
	config.Twilio.Dev = true
	config.Firebase.Dev = true
	if errs := config.CheckDependencies(); len(errs) > 0 {
		return nil, formattedError("invalid server config:\n%v", strings.Join(errs, "\n"))
	}

	return server.OpenStore(ctx, config, devMode)
}

func createAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect & cancel SOS alerts in the configured store",
	}

	cmd.AddCommand(createAlertsListCmd(), createAlertsCancelCmd())
	return cmd
}

func createAlertsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, err := openAlertStore(ctx, isDevEnv)
			if err != nil {
				return err
			}
			defer store.Close()

			alerts, err := sos.NewService(store, store, nil, nil, 1).ListAlerts(ctx)
			if err != nil {
				return err
			}

			if len(alerts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No alerts found")
				return nil
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tUSER\tSTATUS\tCREATED\tLOCATION")
			for _, alert := range alerts {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
					alert.ID,
					alert.UserID,
					colors.AlertStatus(alert.Status),
					alert.CreatedAt.Format(time.RFC3339),
					sos.MapsURL(alert.Lat, alert.Lon),
				)
			}

			return writer.Flush()
		},
	}
}

func createAlertsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <alert id>",
		Short: "Cancel an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, err := openAlertStore(ctx, isDevEnv)
			if err != nil {
				return err
			}
			defer store.Close()

			err = sos.NewService(store, store, nil, nil, 1).CancelAlert(ctx, args[0])
			if errors.Is(err, models.ErrAlertNotFound) {
				return formattedError("alert %v not found", args[0])
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Alert %v %v\n", args[0], colors.AlertStatus(models.CANCELLED_ALERT))
			return nil
		},
	}
}
