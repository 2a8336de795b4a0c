package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"farmer_assist/pkg/core/flow"
	"farmer_assist/pkg/core/llm"
	"farmer_assist/pkg/core/market"
	"farmer_assist/pkg/core/store"

	"github.com/spf13/cobra"
)

// pricesCmd prints raw mandi prices
func pricesCmd() *cobra.Command {
	var commodity string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "prices <district>",
		Short: "Show today's mandi prices for a district",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Market.Lookup(ctx, market.Query{District: args[0], Commodity: commodity, Limit: limit})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp)
			}

			if resp.IsDummyData {
				fmt.Println("(live prices unavailable, showing sample data)")
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MARKET\tDISTRICT\tCOMMODITY\tMIN\tMAX\tMODAL\tDATE")
			for _, r := range resp.Records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Market, r.District, r.Commodity, r.MinPrice, r.MaxPrice, r.ModalPrice, r.ArrivalDate)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&commodity, "commodity", "", "Commodity name as listed by the API")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum records")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// marketCmd asks the market flow a question
func marketCmd() *cobra.Command {
	var location, language string

	cmd := &cobra.Command{
		Use:   "market <question>",
		Short: "Ask about crop prices in your district",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Market.Insights(ctx, market.InsightRequest{
				Query:    strings.Join(args, " "),
				Location: location,
				Language: language,
			})
			if err != nil {
				return err
			}
			fmt.Println(res.Summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "District (required)")
	cmd.Flags().StringVar(&language, "lang", "", "Response language: en, kn or hi")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

// schemesCmd answers a question about government schemes
func schemesCmd() *cobra.Command {
	var state, district, language string
	var age int

	cmd := &cobra.Command{
		Use:   "schemes <question>",
		Short: "Ask about government schemes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			in := flow.GetSchemeInformationInput{SchemeQuery: query, Language: language, State: state, District: district}
			if age > 0 {
				in.Age = &age
			}
			for _, d := range a.Schemes.Search(query, state, district, 0) {
				in.SchemeDocuments = append(in.SchemeDocuments, flow.SchemeDocument{Title: d.Title, Content: d.Content})
			}

			out, err := a.Flows.GetSchemeInformation(ctx, in)
			if err != nil {
				return err
			}
			fmt.Println(out.SchemeInformation)
			if out.OtherRelevantSchemes != "" {
				fmt.Println()
				fmt.Println("Other relevant schemes:")
				fmt.Println(out.OtherRelevantSchemes)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Your state")
	cmd.Flags().StringVar(&district, "district", "", "Your district")
	cmd.Flags().IntVar(&age, "age", 0, "Your age")
	cmd.Flags().StringVar(&language, "lang", "", "Response language: en, kn or hi")
	return cmd
}

// diagnoseCmd diagnoses a plant from a photo file and/or a description
func diagnoseCmd() *cobra.Command {
	var photo, language string

	cmd := &cobra.Command{
		Use:   "diagnose [description]",
		Short: "Diagnose a plant problem from a photo or description",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := flow.AnalyzePlantImageInput{TextQuery: strings.Join(args, " "), Language: language}
			if photo != "" {
				uri, err := photoDataURI(photo)
				if err != nil {
					return err
				}
				in.PhotoDataURI = uri
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Flows.AnalyzePlantImage(ctx, in)
			if err != nil {
				return err
			}
			fmt.Println(out.Diagnosis)
			return nil
		},
	}

	cmd.Flags().StringVarP(&photo, "photo", "p", "", "Path to a JPEG or PNG photo")
	cmd.Flags().StringVar(&language, "lang", "", "Response language: en, kn or hi")
	return cmd
}

// migrateCmd creates the database tables
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Database.URL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			ctx := cmd.Context()
			if err := store.InitDB(ctx, cfg.Database.URL); err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(ctx, store.GetPool()); err != nil {
				return err
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}

func photoDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}
	mime := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mime = "image/png"
	}
	return llm.Media{MIMEType: mime, Data: data}.DataURI(), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
