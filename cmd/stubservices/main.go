// Command stubservices serves the demo study over the subsetting, data, user and record
// service APIs so the workspace can run without the real backends.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"edaworkspace/internal/testkit"

	"github.com/spf13/cobra"
)

func main() {
	var addr string
	var households int
	var seed int64
	var quiet bool

	rootCmd := &cobra.Command{
		Use:   "stubservices",
		Short: "Serve the demo study over the backend service APIs",
		Long: `Serve a generated household cohort over the subsetting, data, user and record
service APIs. The workspace's default service URLs point at this server.

Example: stubservices --addr :8090 --households 200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			demo := testkit.DefaultDemoConfig()
			if households > 0 {
				demo.Households = households
			}
			if cmd.Flags().Changed("seed") {
				demo.Seed = seed
			}

			server := testkit.NewServer(demo, !quiet)
			log.Printf("Stub services for study %s listening on %s", testkit.DemoStudyID, addr)
			return http.ListenAndServe(addr, server)
		},
	}

	rootCmd.Flags().StringVar(&addr, "addr", ":8090", "Listen address")
	rootCmd.Flags().IntVar(&households, "households", 0, "Number of generated households (0 keeps the default)")
	rootCmd.Flags().Int64Var(&seed, "seed", 42, "Generator seed")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Do not log requests")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
