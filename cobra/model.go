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

package cobra

import (
	"fmt"
	"strings"

	spfcbr "github.com/spf13/cobra"

	"github.com/nabbar/flockd/config"
)

type cobra struct {
	c       *spfcbr.Command
	i       FuncInit
	cfg     config.Config
	flgCfg  string
	flgProf string
}

func (c *cobra) Cobra() *spfcbr.Command {
	return c.c
}

func (c *cobra) SetFuncInit(fct FuncInit) {
	c.i = fct
}

func (c *cobra) Config() config.Config {
	return c.cfg
}

func (c *cobra) SetFlagConfig(persistent bool) {
	usage := "path to a config file (yaml, json or toml) to overlay onto the selected profile"

	if persistent {
		c.c.PersistentFlags().StringVarP(&c.flgCfg, "config", "c", "", usage)
		_ = c.c.MarkPersistentFlagFilename("config", "json", "toml", "yaml", "yml")
	} else {
		c.c.Flags().StringVarP(&c.flgCfg, "config", "c", "", usage)
		_ = c.c.MarkFlagFilename("config", "json", "toml", "yaml", "yml")
	}
}

func (c *cobra) SetFlagProfile(persistent bool) {
	usage := "timing profile to start from: lan, wan or local"

	if persistent {
		c.c.PersistentFlags().StringVar(&c.flgProf, "profile", "lan", usage)
	} else {
		c.c.Flags().StringVar(&c.flgProf, "profile", "lan", usage)
	}
}

func (c *cobra) AddCommand(cmd ...*spfcbr.Command) {
	c.c.AddCommand(cmd...)
}

func (c *cobra) profile() config.Profile {
	switch strings.ToLower(c.flgProf) {
	case "wan":
		return config.ProfileWAN
	case "local":
		return config.ProfileLocal
	default:
		return config.ProfileLAN
	}
}

func (c *cobra) resolveConfig(_ *spfcbr.Command, _ []string) error {
	cfg, err := config.Load(c.profile(), c.flgCfg)
	if err != nil {
		return fmt.Errorf("cobra: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("cobra: %w", err)
	}

	c.cfg = cfg

	if c.i != nil {
		return c.i(cfg)
	}

	return nil
}

func (c *cobra) Execute() error {
	c.c.PersistentPreRunE = c.resolveConfig
	return c.c.Execute()
}
