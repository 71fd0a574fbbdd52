package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tenure/internal/bundle"
	"tenure/internal/driver"
	"tenure/internal/region"
	"tenure/internal/source"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flags] <bundle.toml>",
	Short: "Dump a bundle's constraint graph",
	Long:  `Load one inference bundle and dump its regions, outlives constraints and group partition, with the same edge view blame search walks`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().Bool("json", false, "emit machine-readable JSON")
	graphCmd.Flags().Bool("sccs", false, "include the group (SCC) partition")
	graphCmd.Flags().String("paths", "", "dump the constraint path between two regions (fr:outlived, e.g. r2:r1)")
}

// graphOutput is the JSON envelope of the graph command.
type graphOutput struct {
	Graph *driver.GraphDump `json:"graph"`
	Path  []driver.PathStep `json:"path,omitempty"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}
	withGroups, err := cmd.Flags().GetBool("sccs")
	if err != nil {
		return fmt.Errorf("failed to get sccs flag: %w", err)
	}
	pathsSpec, err := cmd.Flags().GetString("paths")
	if err != nil {
		return fmt.Errorf("failed to get paths flag: %w", err)
	}

	b, err := bundle.Load(args[0])
	if err != nil {
		return err
	}
	built, err := b.Build(source.NewFileSet())
	if err != nil {
		return err
	}
	inf := built.Inference

	out := graphOutput{Graph: driver.DumpGraph(inf, withGroups)}
	if pathsSpec != "" {
		fr, outlived, err := parsePathSpec(pathsSpec, inf.NumRegions())
		if err != nil {
			return err
		}
		steps, err := driver.DumpPath(inf, fr, outlived)
		if err != nil {
			return internalFault(cmd, err)
		}
		out.Path = steps
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printGraphText(os.Stdout, out, pathsSpec)
	return nil
}

// parsePathSpec reads a fr:outlived pair; region ids accept both the
// display form (r2) and the bare ordinal (2).
func parsePathSpec(spec string, numRegions int) (region.RegionID, region.RegionID, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --paths value %q (expected fr:outlived)", spec)
	}
	fr, err := parseRegionArg(parts[0], numRegions)
	if err != nil {
		return 0, 0, err
	}
	outlived, err := parseRegionArg(parts[1], numRegions)
	if err != nil {
		return 0, 0, err
	}
	return fr, outlived, nil
}

func parseRegionArg(s string, numRegions int) (region.RegionID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "r")
	n, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid region %q", s)
	}
	if n < 1 || n > uint64(numRegions) {
		return 0, fmt.Errorf("region %q out of range (bundle has %d regions)", s, numRegions)
	}
	return region.RegionID(n), nil
}

func printGraphText(w *os.File, out graphOutput, pathsSpec string) {
	g := out.Graph
	fn := g.Fn
	if fn == "" {
		fn = "(unnamed)"
	}
	fmt.Fprintf(w, "fn %s: %d regions", fn, g.NumRegions)
	if g.Static != "" {
		fmt.Fprintf(w, ", static %s", g.Static)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "regions:")
	for _, r := range g.Regions {
		fmt.Fprintf(w, "  %s", r.ID)
		if r.Name != "" {
			fmt.Fprintf(w, " %s", r.Name)
		}
		if r.Universal {
			fmt.Fprint(w, " universal")
		}
		if r.Local {
			fmt.Fprint(w, " local")
		}
		fmt.Fprintf(w, " group=%d\n", r.Group)
	}

	fmt.Fprintln(w, "constraints:")
	for _, c := range g.Constraints {
		fmt.Fprintf(w, "  %s -> %s  %s  at %s", c.Sup, c.Sub, c.Category, c.At)
		if c.Synthetic {
			fmt.Fprint(w, "  (synthetic)")
		}
		fmt.Fprintln(w)
	}

	if len(g.Groups) > 0 {
		fmt.Fprintln(w, "groups:")
		for i, members := range g.Groups {
			fmt.Fprintf(w, "  g%d: %s\n", i+1, strings.Join(members, " "))
		}
	}

	if out.Path != nil {
		fmt.Fprintf(w, "path %s:\n", pathsSpec)
		for _, step := range out.Path {
			fmt.Fprintf(w, "  %s -> %s  %s  at %s\n", step.Sup, step.Sub, step.Category, step.At)
		}
	}
}
