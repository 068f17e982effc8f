package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/routesmith/routesmith"
	"github.com/routesmith/routesmith/internal/openapi"
)

// These variables are set at build time by the Makefile's ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var watch bool
	var verbose bool
	var clientOut string
	var serverOut string

	var rootCmd = &cobra.Command{
		Use:   "routesmith [path]",
		Short: "routesmith generates typed TypeScript API accessors from a route directory.",
		Long: `routesmith walks a file-system route directory, infers each handler's
input and output types, and generates two TypeScript artifacts: a client
accessor built on reactive data-fetching hooks, and a server accessor that
invokes the handler logic directly. Configure it through a .routesmith.yaml
file at the project root.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectPath := args[0]
			opts := routesmith.Options{Verbose: verbose, ClientOut: clientOut, ServerOut: serverOut}
			fmt.Printf("Generating accessors for project at: %s\n", projectPath)

			if watch {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				fmt.Println("Watching for route changes. Press Ctrl+C to stop.")
				if err := routesmith.Watch(ctx, projectPath, opts); err != nil {
					fmt.Fprintf(os.Stderr, "Error while watching: %v\n", err)
					os.Exit(1)
				}
				return
			}

			if err := routesmith.Generate(cmd.Context(), projectPath, opts); err != nil {
				fmt.Fprintf(os.Stderr, "Error during generation: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Successfully generated client and server accessors.")
		},
	}
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate on route file changes")
	rootCmd.Flags().StringVar(&clientOut, "client-out", "", "Override the client artifact path")
	rootCmd.Flags().StringVar(&serverOut, "server-out", "", "Override the server artifact path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print per-update progress")

	var outputPath string
	var openapiCmd = &cobra.Command{
		Use:   "openapi [path]",
		Short: "Export the route tree as an OpenAPI v3 specification",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			projectPath := args[0]
			root, cfg, err := routesmith.BuildTree(cmd.Context(), projectPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error during analysis: %v\n", err)
				os.Exit(1)
			}
			spec, err := openapi.BuildSpec(root, cfg.Title, cfg.Version)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error assembling specification: %v\n", err)
				os.Exit(1)
			}
			yamlData, err := yaml.Marshal(spec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec to YAML: %v\n", err)
				os.Exit(1)
			}
			if err := os.WriteFile(outputPath, yamlData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Successfully generated OpenAPI spec at: %s\n", outputPath)
		},
	}
	openapiCmd.Flags().StringVarP(&outputPath, "output", "o", "openapi.yaml", "Output file for the OpenAPI specification")
	rootCmd.AddCommand(openapiCmd)

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of routesmith",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("routesmith version %s\n", version)
			fmt.Printf("commit: %s\n", commit)
			fmt.Printf("built at: %s\n", date)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
