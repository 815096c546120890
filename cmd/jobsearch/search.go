package main

import (
	"github.com/spf13/cobra"

	"ats-aggregator/internal/api/validation"
	"ats-aggregator/internal/app"
	"ats-aggregator/internal/errors"
	"ats-aggregator/pkg/models"
)

var (
	searchPlatforms []string
	searchDateRange string
	searchWorkTypes []string
	searchLocation  string
	searchPage      int
	searchLimit     int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search the enabled job boards",
	Long: `Search runs each query against every enabled board, merges the results
newest first and prints them as JSON. Queries use the same syntax as the
HTTP API: ("a" OR "b") groups, site: filters and after:Nd.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := models.SearchRequest{
			Queries:   args,
			Platforms: searchPlatforms,
			DateRange: searchDateRange,
			WorkTypes: searchWorkTypes,
			Location:  searchLocation,
			Page:      searchPage,
			Limit:     searchLimit,
		}
		if err := validation.New().Struct(req); err != nil {
			return errors.Newf("invalid search: %v", validation.Messages(err))
		}

		services, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer services.Close()

		resp, err := services.Search.Search(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchPlatforms, "platforms", nil, "Restrict to these source ids")
	searchCmd.Flags().StringVar(&searchDateRange, "date-range", "", "Only postings from the last N days")
	searchCmd.Flags().StringSliceVar(&searchWorkTypes, "work-types", nil, "remote, hybrid or onsite")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "Location filter")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "1-based page of results")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Results per page, 0 for all")
}
