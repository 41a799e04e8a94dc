package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/service"
)

var browseCmd = &cobra.Command{
	Use:   "browse <agency-code>",
	Short: "Page through an agency's travels inside a date window",
	Long: `Searches the agency's travels whose start and end dates fall in the given
windows (dd/mm/yyyy, each window at most one month wide) and prints them page
by page. With --interactive the next page is loaded on Enter; otherwise
--pages pages are loaded (0 loads until the end).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startFrom, _ := cmd.Flags().GetString("start-from")
		startUntil, _ := cmd.Flags().GetString("start-until")
		endFrom, _ := cmd.Flags().GetString("end-from")
		endUntil, _ := cmd.Flags().GetString("end-until")
		pages, _ := cmd.Flags().GetInt("pages")
		interactive, _ := cmd.Flags().GetBool("interactive")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		src, err := openSources(ctx, cfg, appLogger)
		if err != nil {
			return err
		}
		defer src.close()

		agency, err := service.NewAgencyService(src.agencies, appLogger).GetAgency(ctx, args[0])
		if err != nil {
			return fmt.Errorf("agency %s: %w", args[0], err)
		}

		details := service.NewAgencyDetails(agency, src.travels, service.DetailsOptions{
			PageSize: src.pageSize,
			EndRule:  service.EndRuleByName(cfg.Pagination.EndRule),
		}, appLogger)

		out := cmd.OutOrStdout()
		if !asJSON {
			fmt.Fprintf(out, "%s (%s)\n", agency.Name, agency.Code)
		}
		unsubscribe := details.Subscribe(printer(out, asJSON))
		defer unsubscribe()

		if err := details.ValidateAndSearch(ctx, startFrom, startUntil, endFrom, endUntil); err != nil {
			if fe, ok := service.TravelFieldErrorsOf(err); ok {
				printFieldErrors(out, fe)
			}
			return err
		}

		in := bufio.NewScanner(cmd.InOrStdin())
		for loaded := 1; details.State().Status != service.StatusEndReached; loaded++ {
			if !interactive && pages > 0 && loaded >= pages {
				break
			}
			if interactive {
				fmt.Fprint(out, "-- Enter for more, q to quit -- ")
				if !in.Scan() || strings.EqualFold(strings.TrimSpace(in.Text()), "q") {
					break
				}
			}
			if err := details.Paginate(ctx); err != nil {
				return err
			}
		}

		if !asJSON {
			fmt.Fprintf(out, "\n%d travels, total R$ %.2f\n", len(details.Travels()), details.ExpensesSum())
		}
		return nil
	},
}

func init() {
	browseCmd.Flags().String("start-from", "", "earliest start date (dd/mm/yyyy)")
	browseCmd.Flags().String("start-until", "", "latest start date (dd/mm/yyyy)")
	browseCmd.Flags().String("end-from", "", "earliest end date (dd/mm/yyyy)")
	browseCmd.Flags().String("end-until", "", "latest end date (dd/mm/yyyy)")
	browseCmd.Flags().Int("pages", 1, "number of pages to load, 0 for all")
	browseCmd.Flags().BoolP("interactive", "i", false, "load the next page on Enter")
	browseCmd.Flags().Bool("json", false, "print each page as a JSON line")
}

// printer renders paginator signals; it never calls back into the paginator.
func printer(out io.Writer, asJSON bool) service.Listener[model.Travel] {
	return func(ev service.Event[model.Travel]) {
		switch ev.Kind {
		case service.EventItemsUpdated:
			if asJSON {
				_ = json.NewEncoder(out).Encode(map[string]any{"page": ev.PageNumber, "items": ev.Items})
				return
			}
			printTravels(out, ev.PageNumber, ev.Items)
		case service.EventEndReached:
			if !asJSON {
				fmt.Fprintln(out, "-- end of results --")
			}
		case service.EventFetchFailed:
			fmt.Fprintf(out, "page %d failed: %v\n", ev.PageNumber, ev.Err)
		}
	}
}

func printTravels(out io.Writer, page int, travels []model.Travel) {
	fmt.Fprintf(out, "\npage %d\n", page)
	if len(travels) == 0 {
		fmt.Fprintln(out, "no travels found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tEND\tTRAVELER\tDESTINATION\tVALUE")
	for _, t := range travels {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\n",
			t.ID, t.StartDate.Format("02/01/2006"), t.EndDate.Format("02/01/2006"), t.TravelerName, t.Destination, t.Value)
	}
	_ = w.Flush()
}

func printFieldErrors(out io.Writer, fe service.TravelFieldErrors) {
	for _, e := range fe.FieldErrors() {
		fmt.Fprintf(out, "  %s: %s\n", e.Field, e.Message)
	}
}
