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
	"github.com/Daskott/haven/server"
	"github.com/spf13/cobra"
)

func createServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start a haven server",
		Long: `The haven server exposes the HTTP API used by the haven web app to
register devices, raise & cancel SOS alerts and manage emergency contacts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadServerConfig(serverConfigFile, isDevEnv)
			if err != nil {
				return err
			}

			server.Start(config, isDevEnv)
			return nil
		},
	}
}
