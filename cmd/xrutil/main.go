// xrutil inspects data source paths and lazily opened zarr arrays
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	xarray "github.com/qri-io/xarray-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "xrutil",
		Short:         "Inspect labeled array data sources",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				l := logrus.New()
				l.SetOutput(cmd.ErrOrStderr())
				l.SetLevel(logrus.DebugLevel)
				xarray.SetLogger(l)
			}
			if configPath == "" {
				return nil
			}
			f, err := os.Open(configPath)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = xarray.LoadOptions(f)
			return err
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&configPath, "config", "", "options file (YAML)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(newClassifyCmd(), newUniformCmd(), newInfoCmd())
	return root
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify PATH...",
		Short: "Print the engine that would open each path",
		Long: `Print the engine that would open each path. Local paths may be glob
patterns, including ** for recursive matching.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tengine=%s remote=%t grib=%t\n",
					p, xarray.GuessEngine(p), xarray.IsRemoteURI(p), xarray.IsGribPath(p))
			}
			return nil
		},
	}
}

// expandPaths expands local glob patterns. Remote URIs and plain paths are
// kept as given
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if xarray.IsRemoteURI(arg) || !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("expanding glob pattern %q: %w", arg, err)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

func newUniformCmd() *cobra.Command {
	tol := xarray.DefaultTolerance
	cmd := &cobra.Command{
		Use:   "uniform VALUE...",
		Short: "Report whether values are evenly spaced",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]float64, len(args))
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("value %d: %w", i, err)
				}
				values[i] = f
			}
			fmt.Fprintln(cmd.OutOrStdout(), xarray.IsUniformSpacedWithin(values, tol))
			return nil
		},
	}
	cmd.Flags().Float64Var(&tol.RTol, "rtol", tol.RTol, "relative tolerance")
	cmd.Flags().Float64Var(&tol.ATol, "atol", tol.ATol, "absolute tolerance")
	return cmd
}

func newInfoCmd() *cobra.Command {
	var bucketURL string
	cmd := &cobra.Command{
		Use:   "info PATH",
		Short: "Describe a zarr array without reading its chunks",
		Long: `Describe a zarr array without reading its chunks. PATH is a local
directory, or a key prefix within the bucket given by --bucket.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				store xarray.Store
				name  = args[0]
			)
			if bucketURL != "" {
				bs, err := xarray.NewBlobStore(cmd.Context(), bucketURL, "")
				if err != nil {
					return err
				}
				defer bs.Close()
				store = bs
			} else {
				dir, base := filepath.Split(filepath.Clean(args[0]))
				ls, err := xarray.NewLocalStore(dir)
				if err != nil {
					return err
				}
				store, name = ls, base
			}
			a, err := xarray.OpenArray(store, name, xarray.ModeRead)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "dtype:  %s\n", a.Dtype())
			fmt.Fprintf(w, "shape:  %v\n", a.Shape())
			fmt.Fprintf(w, "scalar: %t\n", xarray.IsScalar(a))
			if attrs := a.Attrs(); attrs.Len() > 0 {
				fmt.Fprintf(w, "attrs:  %s\n", attrs)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bucketURL, "bucket", "", "blob bucket URL, like file:///data")
	return cmd
}
