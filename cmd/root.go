/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/nuts-foundation/nuts-vci/core"
	httpEngine "github.com/nuts-foundation/nuts-vci/http"
	httpCmd "github.com/nuts-foundation/nuts-vci/http/cmd"
	keysAPI "github.com/nuts-foundation/nuts-vci/keys/api/v0"
	keysCmd "github.com/nuts-foundation/nuts-vci/keys/cmd"
	"github.com/nuts-foundation/nuts-vci/storage"
	storageCmd "github.com/nuts-foundation/nuts-vci/storage/cmd"
	"github.com/nuts-foundation/nuts-vci/vcr"
	issuerAPI "github.com/nuts-foundation/nuts-vci/vcr/api/issuer/v0"
	openid4vciAPI "github.com/nuts-foundation/nuts-vci/vcr/api/openid4vci/v0"
	vcrCmd "github.com/nuts-foundation/nuts-vci/vcr/cmd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var stdOutWriter io.Writer = os.Stdout

func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nuts-vci",
		Short: "OpenID4VCI credential issuer, which can be used to run the issuer or administer a remote issuer.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
		SilenceUsage: true,
	}
}

func createPrintConfigCommand(system *core.System) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Prints the current config",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return system.Load(cmd.Flags())
		},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("Current system config")
			cmd.Println(system.Config.PrintConfig())
		},
	}
	addServerFlags(cmd.Flags())
	return cmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of this binary",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(core.BuildInfo())
		},
	}
}

func createServerCommand(system *core.System) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the credential issuer",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return system.Load(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return startServer(cmd.Context(), system)
		},
	}
	addServerFlags(cmd.Flags())
	return cmd
}

func addServerFlags(flags *pflag.FlagSet) {
	flags.AddFlagSet(core.FlagSet())
	flags.AddFlagSet(httpCmd.FlagSet())
	flags.AddFlagSet(storageCmd.FlagSet())
	flags.AddFlagSet(vcrCmd.FlagSet())
}

func startServer(ctx context.Context, system *core.System) error {
	logrus.Infof("Starting server %s with config:", core.Version())
	logrus.Info(system.Config.PrintConfig())

	// check config on all engines
	if err := system.Configure(); err != nil {
		return err
	}

	// register HTTP routes
	var router core.EchoRouter
	system.VisitEngines(func(engine core.Engine) {
		if httpServer, ok := engine.(*httpEngine.Engine); ok {
			router = httpServer.Router()
		}
	})
	if router == nil {
		return errors.New("HTTP engine not registered")
	}
	system.VisitEngines(func(engine core.Engine) {
		if routable, ok := engine.(core.Routable); ok {
			routable.Routes(router)
		}
	})
	for _, routable := range system.Routers {
		routable.Routes(router)
	}

	// start engines
	if err := system.Start(); err != nil {
		return err
	}

	// wait for a termination signal or the HTTP server stopping
	<-ctx.Done()
	logrus.Info("Shutting down...")
	err := system.Shutdown()
	if err != nil {
		logrus.WithError(err).Error("Error shutting down system")
	} else {
		logrus.Info("Shutdown complete. Goodbye!")
	}
	return err
}

// keysRoutes registers the key administration API.
// The key manager is only available after the issuer engine has been configured, so it's resolved when routes are registered.
type keysRoutes struct {
	issuer vcr.Issuer
}

func (k keysRoutes) Routes(router core.EchoRouter) {
	keysAPI.Wrapper{Keys: k.issuer.Keys()}.Routes(router)
}

// CreateCommand creates the command with all subcommands to run the system.
func CreateCommand(system *core.System) *cobra.Command {
	command := createRootCommand()
	command.SetOut(stdOutWriter)
	command.AddCommand(createServerCommand(system))
	command.AddCommand(createPrintConfigCommand(system))
	command.AddCommand(createVersionCommand())
	command.AddCommand(httpCmd.ServerCmd())
	command.AddCommand(vcrCmd.OfferCmd())
	command.AddCommand(keysCmd.Cmd())
	command.AddCommand(keysCmd.PKICmd())
	return command
}

// CreateSystem creates the system and registers all default engines.
// The shutdown callback is called when the HTTP server stops unexpectedly.
func CreateSystem(shutdownCallback context.CancelFunc) *core.System {
	system := core.NewSystem()
	// Create instances
	storageInstance := storage.New()
	issuerInstance := vcr.NewIssuerInstance(storageInstance)
	httpServerInstance := httpEngine.New(shutdownCallback)

	// Register HTTP routes
	system.RegisterRoutes(openid4vciAPI.Wrapper{Issuer: issuerInstance})
	system.RegisterRoutes(issuerAPI.Wrapper{Issuer: issuerInstance})
	system.RegisterRoutes(keysRoutes{issuer: issuerInstance})

	// Register engines
	// Order matters: engines are configured and started in this order, and shut down in reverse order.
	system.RegisterEngine(storageInstance)
	system.RegisterEngine(issuerInstance)
	system.RegisterEngine(httpServerInstance)
	system.RegisterEngine(core.NewStatusEngine(system))
	system.RegisterEngine(core.NewMetricsEngine(system))
	return system
}

// Execute executes the root command with the given system.
func Execute(ctx context.Context, system *core.System) error {
	command := CreateCommand(system)
	command.SetOut(stdOutWriter)
	return command.ExecuteContext(ctx)
}
