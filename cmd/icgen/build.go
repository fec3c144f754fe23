package main

import (
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tinapiao/icgen"
	"github.com/tinapiao/icgen/internal/config"
	"github.com/tinapiao/icgen/recording"
)

func newBuildCmd() *cobra.Command {
	var out, record string
	cmd := &cobra.Command{
		Use:   "build <spec-file> <template-lib>",
		Short: "Build a design and write its record stream.",
		Long: `Build the design described by spec-file over the template ` +
			`library template-lib ("-" selects the built-in catalog).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := openLibrary(args[1])
			if err != nil {
				return withCode(exitBuild, err)
			}
			s, err := config.ReadFile(args[0])
			if err != nil {
				return withCode(exitBuild, err)
			}
			d, err := s.Build(lib)
			if err != nil {
				return withCode(exitBuild, errors.Wrap(err, s.Name))
			}
			if err = writeStream(out, cmd.OutOrStdout(), d); err != nil {
				return withCode(exitBuild, err)
			}
			if record != "" {
				return withCode(exitBuild, recordDesigns(record, d))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output stream file, - for stdout")
	cmd.Flags().StringVar(&record, "record", "", "also record the stream into an SQLite database, - for a generated name")
	return cmd
}

func openLibrary(path string) (*icgen.Library, error) {
	unit, err := config.GridUnit()
	if err != nil {
		return nil, err
	}
	return config.OpenLibrary(path, unit)
}

// writeStream writes the stream of d to the named file, or to stdout if
// name is "-".
//
func writeStream(name string, stdout io.Writer, d *icgen.Design) error {
	if name == "-" {
		return icgen.WriteStream(stdout, d)
	}
	f, err := os.Create(name)
	if err != nil {
		return errors.WithStack(err)
	}
	if err = icgen.WriteStream(f, d); err != nil {
		f.Close()
		return err
	}
	glog.V(1).Infof("%s: %d records written to %s", d.Name, d.Len(), name)
	return errors.WithStack(f.Close())
}

func recordDesigns(path string, ds ...*icgen.Design) error {
	if path == "-" {
		path = ""
	}
	r, err := recording.New(path)
	if err != nil {
		return err
	}
	for _, d := range ds {
		if err = r.Record(d); err != nil {
			r.Close()
			return err
		}
	}
	glog.Infof("recorded %d designs to %s", len(ds), r.Path())
	return r.Close()
}
