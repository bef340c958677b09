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

	"github.com/Daskott/haven/version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	isDevEnv bool

	yellow       = color.New(color.FgYellow).SprintFunc()
	red          = color.New(color.FgRed).SprintFunc()
	warningLabel = yellow("Warning:")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd = createRootCmd()
	rootCmd.Version = fmt.Sprintf("v%s", version.Version)

	rootCmd.AddCommand(createServerCmd())
	rootCmd.AddCommand(createAlertsCmd())
}

func createRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "haven",
		Short: `haven relays SOS alerts from the haven web app.

When a user triggers an alert, haven saves it, texts the user's
emergency contacts their location & pushes a notification to the user's devices.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode (sms & push are only logged)")
	cmd.PersistentFlags().StringVar(&serverConfigFile, "sconfig", "", "server config file")

	return cmd
}

func formattedError(format string, a ...interface{}) error {
	return fmt.Errorf(red(format), a...)
}
