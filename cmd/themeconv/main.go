// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "themeconv",
		Usage: "Convert extracted theme sections into shortcodes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML, JSON or TOML config file",
				EnvVars: []string{"THEMECONV_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				EnvVars: []string{"THEMECONV_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-dir",
				Usage:   "Directory for dated log files; empty logs to stderr only",
				EnvVars: []string{"THEMECONV_LOG_DIR"},
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			convertCommand(),
			summaryCommand(),
			lookupCommand(),
		},
	}
}
