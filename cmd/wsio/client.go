package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/wsio/internal/config"
	"github.com/vango-dev/wsio/internal/errors"
	"github.com/vango-dev/wsio/pkg/wsio"
)

func clientCmd(opts *globalOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "client [url]",
		Short: "Run the demo client",
		Long: `Run the demo client.

The client registers stringMessage and binaryMessage listeners, then
sends requestStringMessage {x:10, y:20, w:200, h:150} and
requestBinaryMessage with the bytes 0..9, printing every reply.

Examples:
  wsio client
  wsio client ws://localhost:8000 --once`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if len(args) == 1 {
				cfg.Client.URL = args[0]
			}
			if err := config.ValidateURL(cfg.Client.URL); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runClient(ctx, cfg, once, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Exit after both replies arrive")

	return cmd
}

func runClient(ctx context.Context, cfg *config.Config, once bool, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan reply, 4)
	sock := wsio.NewClient(cfg.Client.URL, cfg.SocketConfig())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		err := sock.Connect(gctx, func(s *wsio.Socket) {
			registerDemoClient(s, replies)
		})
		if err != nil && !stderrors.Is(err, context.Canceled) {
			return errors.FromError(err, "W200").WithSuggestion("Is the server running? Start one with 'wsio serve'")
		}
		return nil
	})
	g.Go(func() error {
		seen := 0
		for {
			select {
			case r := <-replies:
				printReply(out, r)
				seen++
				if once && seen == 2 {
					cancel()
					return nil
				}
			case <-gctx.Done():
				return nil
			}
		}
	})

	return g.Wait()
}

func printReply(w io.Writer, r reply) {
	if r.bytes != nil {
		fmt.Fprintf(w, "%s: %v\n", r.event, r.bytes)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", r.event, r.text)
}
