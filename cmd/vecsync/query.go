package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
)

var searchFlags struct {
	portal      string
	columns     []string
	categories  []string
	departments []string
	offset      int
	limit       int
}

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Keyword and facet search; prints matching ids and the exact total",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		p := query.Params{
			Portal:      searchFlags.portal,
			Columns:     searchFlags.columns,
			Categories:  searchFlags.categories,
			Departments: searchFlags.departments,
			Offset:      searchFlags.offset,
			Limit:       searchFlags.limit,
		}
		if len(args) == 1 {
			p.Term = args[0]
		}

		page, err := a.searchService().Search(cmd.Context(), p)
		if err != nil {
			return err
		}
		return writeJSONTo(cmd.OutOrStdout(), struct {
			IDs   []string `json:"ids"`
			Total int      `json:"total"`
		}{IDs: page.IDs, Total: page.Total})
	},
}

var similarFlags struct {
	portal string
	record string
}

var similarCmd = &cobra.Command{
	Use:   "similar [text]",
	Short: "Rank records by semantic similarity to text or to an existing record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && similarFlags.record == "" {
			return cmd.Usage()
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		svc := a.searchService()
		var items []result.Scored
		if similarFlags.record != "" {
			items, err = svc.SimilarToRecord(cmd.Context(), similarFlags.record, similarFlags.portal)
		} else {
			items, err = svc.Similar(cmd.Context(), args[0], similarFlags.portal)
		}
		if err != nil {
			return err
		}

		type row struct {
			ID    string  `json:"id"`
			Title string  `json:"title"`
			Score float64 `json:"score"`
		}
		rows := make([]row, len(items))
		for i := range items {
			rows[i] = row{ID: items[i].Record.ID, Title: items[i].Record.Name, Score: items[i].Score}
		}
		return writeJSONTo(cmd.OutOrStdout(), rows)
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.portal, "portal", "", "portal id facet")
	f.StringSliceVar(&searchFlags.columns, "column", nil, "column facet (repeatable)")
	f.StringSliceVar(&searchFlags.categories, "category", nil, "category facet (repeatable)")
	f.StringSliceVar(&searchFlags.departments, "department", nil, "department facet (repeatable)")
	f.IntVar(&searchFlags.offset, "offset", 0, "result window offset")
	f.IntVar(&searchFlags.limit, "limit", 0, "result window size (default from config)")

	sf := similarCmd.Flags()
	sf.StringVar(&similarFlags.portal, "portal", "", "restrict to one portal")
	sf.StringVar(&similarFlags.record, "record", "", "rank records similar to this record id instead of text")
}
