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

package config

import (
	"fmt"
	"strings"

	libmap "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/nabbar/flockd/duration"
)

// Profile selects one of the three built-in timing baselines a Loader starts
// from before file/env overrides are applied.
type Profile uint8

const (
	ProfileLAN Profile = iota
	ProfileWAN
	ProfileLocal
)

func (p Profile) base() Config {
	switch p {
	case ProfileWAN:
		return DefaultWANConfig()
	case ProfileLocal:
		return DefaultLocalConfig()
	default:
		return DefaultLANConfig()
	}
}

// Load builds a Config by starting from the given profile, then overlaying
// any values found in the optional config file and in environment variables
// prefixed with "FLOCKD_" (nested fields use "_" in place of ".").
//
// An empty path skips file loading; viper.ConfigFileNotFoundError is not
// treated as an error in that case, but is returned for any path explicitly
// provided.
func Load(profile Profile, path string) (Config, error) {
	cfg := profile.base()

	v := viper.New()
	v.SetEnvPrefix("flockd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	hook := viper.DecodeHook(libmap.ComposeDecodeHookFunc(
		duration.ViperDecoderHook(),
		libmap.StringToSliceHookFunc(","),
	))

	if err := v.Unmarshal(&cfg, hook); err != nil {
		return cfg, fmt.Errorf("config: decoding: %w", err)
	}

	return cfg, nil
}
