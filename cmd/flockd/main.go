/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command flockd is the CLI entry point for a gossip node: its "agent"
// command owns the process lifetime of the agent. The "join", "leave" and
// "members" commands are registered but only log the request and return an
// error: no control-protocol client connects them to a running agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	spfcbr "github.com/spf13/cobra"

	"github.com/nabbar/flockd/agent"
	"github.com/nabbar/flockd/config"
	libcbr "github.com/nabbar/flockd/cobra"
	"github.com/nabbar/flockd/logger"
	loglvl "github.com/nabbar/flockd/logger/level"
)

func main() {
	root := libcbr.New("flockd", "flockd gossip agent", "flockd runs and drives a SWIM-gossip cluster-membership node.")
	root.SetFlagConfig(true)
	root.SetFlagProfile(true)

	log := logger.New(context.Background())
	log.SetLevel(loglvl.InfoLevel)

	root.SetFuncInit(func(cfg config.Config) error {
		log.Info("configuration resolved for node %s on %s:%d", nil, cfg.NodeName, cfg.BindAddr, cfg.BindPort)
		return nil
	})

	root.AddCommand(agentCommand(root, log))
	root.AddCommand(joinCommand(root, log))
	root.AddCommand(leaveCommand(root, log))
	root.AddCommand(membersCommand(root, log))

	if err := root.Execute(); err != nil {
		log.Error("flockd exited with error: %s", nil, err.Error())
		os.Exit(1)
	}
}

// agentCommand owns the process lifetime: it resolves the configuration,
// starts the node, and blocks until an interrupt or terminate signal is
// received, at which point it drives a graceful leave/shutdown.
func agentCommand(root libcbr.Cobra, log logger.Logger) *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "agent",
		Short: "run the gossip agent in the foreground",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			cfg := root.Config()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("agent starting for node %s label %q", nil, cfg.NodeName, cfg.Label)

			a, err := agent.New(cfg, log, nil)
			if err != nil {
				return err
			}
			if err = a.Start(); err != nil {
				return err
			}

			if len(args) > 0 {
				if _, err = a.Join(args, true); err != nil {
					log.Warning("agent: initial join failed", err)
				}
			}

			<-ctx.Done()

			log.Info("agent shutting down", nil)
			if err = a.Leave(); err != nil {
				log.Warning("agent: leave failed", err)
			}
			return a.Shutdown()
		},
	}
}

func joinCommand(root libcbr.Cobra, log logger.Logger) *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "join [addresses...]",
		Short: "ask a running agent to join the given peer addresses",
		Args:  spfcbr.MinimumNArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			log.Info("join requested for addresses %v", nil, args)
			return fmt.Errorf("flockd: join requires a running agent's control endpoint; not yet connected")
		},
	}
}

func leaveCommand(root libcbr.Cobra, log logger.Logger) *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "leave",
		Short: "ask a running agent to gracefully leave the cluster",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			log.Info("leave requested", nil)
			return fmt.Errorf("flockd: leave requires a running agent's control endpoint; not yet connected")
		},
	}
}

func membersCommand(root libcbr.Cobra, log logger.Logger) *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "members",
		Short: "list the members known to a running agent",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			log.Info("members requested", nil)
			return fmt.Errorf("flockd: members requires a running agent's control endpoint; not yet connected")
		},
	}
}
