package main

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/chain"
	"github.com/tinapiao/icgen/internal/config"
)

func newSweepCmd() *cobra.Command {
	var (
		outDir, record string
		workers        int
	)
	cmd := &cobra.Command{
		Use:   "sweep <template-lib> <spec-file>...",
		Short: "Build chain designs concurrently.",
		Long: `Build every chain design spec concurrently over one template ` +
			`library and write one stream per design into the output ` +
			`directory. All designs are built even if some fail.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(args[0])
			if err != nil {
				return withCode(exitBuild, err)
			}
			jobs, err := sweepJobs(args[1:])
			if err != nil {
				return withCode(exitBuild, err)
			}
			if err = os.MkdirAll(outDir, 0o755); err != nil {
				return withCode(exitBuild, errors.WithStack(err))
			}
			run := xid.New().String()
			glog.V(1).Infof("sweep %s: %d designs", run, len(jobs))

			var (
				failed int
				ds     []*icgen.Design
			)
			for _, o := range chain.Sweep(workers, lib, jobs) {
				if o.Err != nil {
					glog.Errorf("sweep %s: %s: %v", run, o.Name, o.Err)
					failed++
					continue
				}
				d := o.Result.Design
				if err = writeStream(filepath.Join(outDir, o.Name+".stream"), nil, d); err != nil {
					return withCode(exitBuild, err)
				}
				ds = append(ds, d)
			}
			if record != "" {
				if err = recordDesigns(record, ds...); err != nil {
					return withCode(exitBuild, err)
				}
			}
			if failed > 0 {
				return withCode(exitBuild, errors.Errorf("sweep %s: %d of %d designs failed", run, failed, len(jobs)))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&outDir, "out-dir", ".", "output directory")
	f.IntVar(&workers, "workers", 0, "number of concurrent builds, 0 for GOMAXPROCS")
	f.StringVar(&record, "record", "", "also record all streams into an SQLite database, - for a generated name")
	return cmd
}

func sweepJobs(files []string) ([]chain.Job, error) {
	jobs := make([]chain.Job, 0, len(files))
	for _, f := range files {
		s, err := config.ReadFile(f)
		if err != nil {
			return nil, err
		}
		if s.Kind != config.KindChain {
			return nil, icgen.Errorf(icgen.Syntax, []string{f, s.Kind}, "sweep only builds chains")
		}
		p, err := s.ChainParams()
		if err != nil {
			return nil, errors.Wrap(err, f)
		}
		jobs = append(jobs, chain.Job{Name: s.Name, Params: p})
	}
	return jobs, nil
}
