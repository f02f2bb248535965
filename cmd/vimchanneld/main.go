// Command vimchanneld is a reference server for the channel package: it
// accepts TCP connections from Vim's ch_open()/job_start(), or speaks the
// same protocol over its own stdin/stdout when launched as a job, and logs
// every request it receives while echoing back an acknowledgement.
package main

import (
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/spf13/cobra"

	logger "github.com/mordilloSan/go_logger/logger"

	"github.com/baberthal/vimchannel/channel"
)

// defaultSocketPort is the port vimchanneld listens on when --socket is
// given without an explicit address.
const defaultSocketPort = 1337

var (
	socketAddr string
	verbose    bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vimchanneld",
		Short: "Reference server for Vim's JSON channel protocol",
		RunE:  run,
	}
	flags := cmd.Flags()
	flags.StringVar(&socketAddr, "socket", "", fmt.Sprintf(
		"accept TCP channel connections on this address instead of stdin/stdout (default port %d when given with no address, e.g. --socket=:9000)",
		defaultSocketPort))
	flags.Lookup("socket").NoOptDefVal = fmt.Sprintf(":%d", defaultSocketPort)
	flags.BoolVar(&verbose, "verbose", false, "enable verbose logging")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	logger.Init("production", verbose)
	if journal.Enabled() {
		_ = journal.Print(journal.PriInfo, "vimchanneld starting")
	}

	delegate := &echoDelegate{}

	if !cmd.Flags().Changed("socket") {
		ch := channel.New(channel.NewStreamBackend(os.Stdin, os.Stdout), delegate)
		channel.RegisterStreamChannel("stdio", ch)
		logger.Infof("vimchanneld: speaking the protocol over stdin/stdout")
		channel.RunForever()
		return nil
	}

	lifecycle := channel.NewLifecycleManager()
	lifecycle.OnStartup(func() { logger.Infof("vimchanneld: listening on %s", socketAddr) })
	lifecycle.OnShutdown(func() {
		logger.Infof("vimchanneld: stopped")
		os.Exit(0)
	})
	lifecycle.OnFailure(func(err error) { logger.Errorf("vimchanneld: accept server failed: %v", err) })

	lifecycle.InstallSignal(channel.SIGINT, func() {
		logger.Infof("vimchanneld: received SIGINT, shutting down")
		channel.StopAllServers()
	})
	lifecycle.InstallSignal(channel.SIGTERM, func() {
		logger.Infof("vimchanneld: received SIGTERM, shutting down")
		channel.StopAllServers()
	})

	manager := channel.NewConnectionManager(channel.DefaultMaxWriteBuffer)
	server := channel.NewAcceptServer(socketAddr, delegate, manager, lifecycle, nil)
	channel.RegisterServer("main", server)

	channel.RunForever()
	return nil
}

// echoDelegate acknowledges every request and logs commands' replies; it
// exists to give the reference binary observable behavior, not as a
// template every embedder must follow.
type echoDelegate struct{}

func (d *echoDelegate) OnMessage(ch *channel.Channel, msg channel.Message) {
	logger.DebugKV("vimchanneld: received message", "id", msg.ID, "body", string(msg.Body))
	if msg.ID > 0 {
		if err := ch.RespondTo(msg, "ok"); err != nil {
			logger.Warnf("vimchanneld: reply failed: %v", err)
		}
	}
}

func (d *echoDelegate) OnResponseToCommand(ch *channel.Channel, resp channel.Message, cmd channel.Command) {
	logger.DebugKV("vimchanneld: received reply to command", "kind", cmd.Kind().String(), "body", string(resp.Body))
}

func (d *echoDelegate) OnBackpressure(ch *channel.Channel, err error) {
	logger.WarnKV("vimchanneld: backpressure", "error", err)
}
