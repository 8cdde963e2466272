// Package main provides the graphstore CLI entry point.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphstore",
		Short: "graphstore - In-Memory Labeled Property Graph Store",
		Long: `graphstore is an in-memory storage engine for labeled property graphs.

It loads a YAML graph fixture (nodes with labels and properties,
relationships with a type and an ordered endpoint list of any arity)
and answers questions about it from the command line.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graphstore v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats [fixture.yaml]",
		Short: "Print node and relationship statistics for a graph fixture",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "dump [fixture.yaml]",
		Short: "Render a graph fixture as text, one line per entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := loadFixture(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Nodes:         %d\n", store.NodeCount())
	fmt.Printf("Relationships: %d\n", store.RelationshipCount(""))

	labels := store.Labels()
	if len(labels) > 0 {
		fmt.Println("\nNodes by label:")
		for _, label := range labels {
			fmt.Printf("  %-16s %d\n", label, store.NodeCount(label))
		}
	}

	types := store.RelationshipTypes()
	if len(types) > 0 {
		fmt.Println("\nRelationships by type:")
		for _, typ := range types {
			fmt.Printf("  %-16s %d\n", typ, store.RelationshipCount(typ))
		}
	}

	nodes := store.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	fmt.Println("\nDegrees:")
	for _, id := range nodes {
		fmt.Printf("  %-16s %d\n", id, store.Degree(id))
	}
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	store, err := loadFixture(args[0])
	if err != nil {
		return err
	}
	fmt.Print(store.Dump())
	return nil
}
