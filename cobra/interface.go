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

// Package cobra wires a minimal CLI scaffold around github.com/spf13/cobra:
// a root command that loads a config.Config before any subcommand runs, and
// a registration point for the commands that map 1:1 onto control-protocol
// commands plus the "agent" command that owns process lifetime.
package cobra

import (
	spfcbr "github.com/spf13/cobra"

	"github.com/nabbar/flockd/config"
)

// FuncInit runs once the config file (if any) has been loaded, before the
// selected subcommand executes.
type FuncInit func(cfg config.Config) error

type Cobra interface {
	// Cobra exposes the underlying *cobra.Command so callers can attach
	// subcommands with the full cobra API.
	Cobra() *spfcbr.Command

	// SetFuncInit registers the callback invoked after config resolution.
	SetFuncInit(fct FuncInit)

	// SetFlagConfig registers the --config/-c flag. When persistent is true
	// it is inherited by every subcommand.
	SetFlagConfig(persistent bool)

	// SetFlagProfile registers the --profile flag (lan, wan, local).
	SetFlagProfile(persistent bool)

	// AddCommand attaches subcommands to the root command.
	AddCommand(cmd ...*spfcbr.Command)

	// Config returns the config resolved during the last PersistentPreRunE,
	// or the LAN default profile if no command has run yet.
	Config() config.Config

	// Execute runs the command tree.
	Execute() error
}

// New builds a Cobra wrapper for the given CLI name and short description.
func New(name, short, long string) Cobra {
	return &cobra{
		c: &spfcbr.Command{
			Use:              name,
			Short:            short,
			Long:             long,
			TraverseChildren: true,
		},
		cfg: config.DefaultLANConfig(),
	}
}
