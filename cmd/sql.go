package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/PavanSai0211/Finance-Reporting-Project/frame"
	"github.com/PavanSai0211/Finance-Reporting-Project/pipeline"
	sqltemplate "github.com/PavanSai0211/Finance-Reporting-Project/template"
)

func newSQLCmd() *cobra.Command {
	var params map[string]string
	var format string
	var exec bool

	cmd := &cobra.Command{
		Use:   "sql FILE",
		Short: "Renders a SQL template file and runs it against the warehouse",
		Long: `Renders FILE with text/template and runs it against the configured warehouse.
Templates may reference {{.key}} for every --param key=value and {{table "name"}}
for the schema-qualified name of a warehouse table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unsupported output format %q, expected csv or json", format)
			}
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}

			wh, err := pipeline.OpenWarehouse(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer wh.Close()

			values := make(map[string]any, len(params))
			for k, v := range params {
				values[k] = v
			}
			query, err := sqltemplate.ExecuteSqlTemplate(args[0], values, template.FuncMap{"table": wh.QualifiedName})
			if err != nil {
				return fmt.Errorf("error rendering %s: %w", args[0], err)
			}
			log.Debug(fmt.Sprintf("Rendered query:\n%s", query))

			if exec {
				if err := wh.RunQuery(query); err != nil {
					return err
				}
				log.Info(fmt.Sprintf("Executed %s", args[0]))
				return nil
			}

			if format == "json" {
				results, err := wh.GetQueryResults(query)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			table, err := wh.QueryTable(query)
			if err != nil {
				return err
			}
			return frame.WriteCSV(os.Stdout, table)
		},
	}

	cmd.Flags().StringToStringVar(&params, "param", nil, "Template parameter as key=value, repeatable")
	cmd.Flags().StringVar(&format, "format", "csv", "Result format: csv or json")
	cmd.Flags().BoolVar(&exec, "exec", false, "Execute statements without reading results")
	return cmd
}
