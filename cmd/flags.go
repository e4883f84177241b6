package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// serverFlags maps flag names to the config keys they override.
var serverFlags = map[string]string{
	"host":    "server.host",
	"port":    "server.port",
	"ws-port": "server.ws_port",
}

// newServerFlagSet defines the flags shared by commands that bind ports.
func newServerFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.String("host", "127.0.0.1", "Loopback host to bind to")
	fs.IntP("port", "p", 3000, "Port of the HTTP file server")
	fs.Int("ws-port", 3001, "Port of the live-reload websocket")
	return fs
}

// addServerFlags adds the server flags to cmd.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(newServerFlagSet())
}

// bindServerFlags binds whichever server flags cmd defines. Only flags set on
// the command line override the config file.
func bindServerFlags(cmd *cobra.Command) error {
	for name, key := range serverFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
