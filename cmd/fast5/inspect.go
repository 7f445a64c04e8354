package main

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fast5/hdf5"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the HDF5 object tree of a file with its attributes",
		Long: `inspect walks a file below the root group and prints every group and
dataset with its attributes. Datasets show their shape, element type and
storage layout. It works on any HDF5 file, FAST5 or not.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd.OutOrStdout(), args[0], a.log)
		},
	}
}

func inspect(w io.Writer, file string, log *zap.Logger) error {
	f, err := hdf5.Open(file, hdf5.WithLogger(log))
	if err != nil {
		return err
	}
	defer f.Close()

	attrs := make(map[string][]hdf5.AttrInfo)
	err = f.WalkAttrs(func(info hdf5.AttrInfo) error {
		attrs[info.ObjectPath] = append(attrs[info.ObjectPath], info)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "reading attributes of %s", file)
	}

	fmt.Fprintf(w, "Superblock version: %d\n\n", f.Version())
	return hdf5.Walk(f.Root(), func(p string, obj interface{}, err error) error {
		depth := 0
		if p != "/" {
			depth = strings.Count(p, "/")
		}
		indent := strings.Repeat("  ", depth)
		name := path.Base(p)
		if err != nil {
			fmt.Fprintf(w, "%s%s: %v\n", indent, name, err)
			return nil
		}

		switch o := obj.(type) {
		case *hdf5.Group:
			if p == "/" {
				fmt.Fprintln(w, "/")
			} else {
				fmt.Fprintf(w, "%s%s/\n", indent, name)
			}
		case *hdf5.Dataset:
			st := o.Storage()
			fmt.Fprintf(w, "%s%s %s %s(%d) %s", indent, name,
				formatShape(o.Shape()), o.DtypeClass(), o.DtypeSize(), st.Layout)
			if len(st.Filters) > 0 {
				fmt.Fprintf(w, " [%s]", strings.Join(st.Filters, ","))
			}
			if !st.Decodable {
				fmt.Fprint(w, " (undecodable)")
			}
			fmt.Fprintln(w)
		}

		for _, a := range attrs[p] {
			if a.Err != nil {
				fmt.Fprintf(w, "%s  @%s: %v\n", indent, a.Name, a.Err)
				continue
			}
			fmt.Fprintf(w, "%s  @%s = %v\n", indent, a.Name, a.Value)
		}
		return nil
	})
}

// formatShape renders dims as [d0 x d1 ...], or "scalar".
func formatShape(dims []uint64) string {
	if len(dims) == 0 {
		return "scalar"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprint(d)
	}
	return "[" + strings.Join(parts, " x ") + "]"
}
