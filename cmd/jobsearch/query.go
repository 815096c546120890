package main

import (
	"github.com/spf13/cobra"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/query"
)

var (
	queryTitles    string
	queryLocations string
	queryWorkTypes []string
	queryPlatforms []string
	queryDateRange string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the query strings built from form fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		titles := query.SplitList(queryTitles)
		locations := query.SplitList(queryLocations)
		if len(titles) == 0 && len(locations) == 0 {
			return errors.New("nothing to search for: give --titles or --locations")
		}

		queries := query.Build(query.BuildParams{
			Titles:    titles,
			Locations: locations,
			WorkTypes: queryWorkTypes,
			Platforms: queryPlatforms,
			DateRange: queryDateRange,
		})
		return printJSON(cmd.OutOrStdout(), queries)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryTitles, "titles", "", "Comma separated job titles")
	queryCmd.Flags().StringVar(&queryLocations, "locations", "", "Comma separated locations")
	queryCmd.Flags().StringSliceVar(&queryWorkTypes, "work-types", nil, "remote, hybrid or onsite")
	queryCmd.Flags().StringSliceVar(&queryPlatforms, "platforms", nil, "Source ids to add site: filters for")
	queryCmd.Flags().StringVar(&queryDateRange, "date-range", "", "Only postings from the last N days")
}
