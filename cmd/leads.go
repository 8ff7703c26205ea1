package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/store"
)

var (
	leadsImportCity string
	leadsListCity   string
	leadsListNoMail bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Manage lead records",
}

var leadsImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import leads from a CSV file",
	Long:  "Imports leads from a CSV with a header row. Recognized columns: name, city, phone, address, email, website, maps_url. The --city flag fills the city for rows without one.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer f.Close()

		created, err := importLeadsCSV(ctx, st, f, leadsImportCity)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("created", created),
			zap.String("csv", args[0]))
		return nil
	},
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			City:         leadsListCity,
			MissingEmail: leadsListNoMail,
		})
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(leads)
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <lead-id>",
	Short: "Show a lead with its latest analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		lead, err := st.GetLead(ctx, args[0])
		if err != nil {
			return err
		}

		out := struct {
			Lead     *model.Lead     `json:"lead"`
			Analysis *model.Analysis `json:"analysis,omitempty"`
		}{Lead: lead}

		if analysis, err := st.LatestAnalysis(ctx, lead.ID); err == nil {
			out.Analysis = analysis
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	},
}

// importLeadsCSV reads a headered CSV and creates one lead per row.
// Rows without a name are skipped.
func importLeadsCSV(ctx context.Context, st store.Store, r io.Reader, defaultCity string) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, eris.Wrap(err, "read csv header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	created := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, eris.Wrap(err, "read csv row")
		}

		name := field(row, "name")
		if name == "" {
			continue
		}
		city := field(row, "city")
		if city == "" {
			city = defaultCity
		}

		_, err = st.CreateLead(ctx, model.Lead{
			City:    city,
			Source:  model.LeadSourceFile,
			Name:    name,
			Phone:   field(row, "phone"),
			Address: field(row, "address"),
			Email:   field(row, "email"),
			Website: field(row, "website"),
			MapsURL: field(row, "maps_url"),
		})
		if err != nil {
			return created, eris.Wrapf(err, "create lead %q", name)
		}
		created++
	}
	return created, nil
}

func init() {
	leadsImportCmd.Flags().StringVar(&leadsImportCity, "city", "", "city for rows without one")
	leadsListCmd.Flags().StringVar(&leadsListCity, "city", "", "filter by city")
	leadsListCmd.Flags().BoolVar(&leadsListNoMail, "missing-email", false, "only leads without an email")
	leadsCmd.AddCommand(leadsImportCmd, leadsListCmd, leadsShowCmd)
	rootCmd.AddCommand(leadsCmd)
}
