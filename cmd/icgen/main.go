// Command icgen plans, builds and lints finger-array layouts.
//
//	icgen plan --first-n 36 --first-p 72 --fan 1.5704 --stages 6
//	icgen build inv6.yaml - --out inv6.stream
//	icgen lint inv6.stream
//	icgen sweep - specs/*.yaml --out-dir out --workers 8
//
// Exit codes: 2 for an out-of-range stage plan, 3 for a failed build or
// sweep, 4 for lint failures.
//
package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/tebeka/atexit"
)

func main() {
	atexit.Register(glog.Flush)
	cmd := newRootCmd()
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	// glog reads its flags from flag.CommandLine; cobra parses them.
	flag.CommandLine.Parse(nil)
	if err := cmd.Execute(); err != nil {
		glog.Errorf("%v", err)
		atexit.Exit(exitCode(err))
	}
	atexit.Exit(0)
}
