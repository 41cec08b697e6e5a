// Package main generates the shared session-cookie signing secret.
package main

import (
	"flag"
	"os"

	"github.com/huddleworks/huddle/internal/platform/config"
	"github.com/huddleworks/huddle/internal/tools/cookiekey"
)

func main() {
	cfg, err := cookiekey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := cookiekey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate cookie secret: %v", err)
	}
}
