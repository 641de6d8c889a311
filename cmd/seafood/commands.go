package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/seafoodai/seafood-terminal/pkg/client"
	"github.com/seafoodai/seafood-terminal/pkg/config"
	"github.com/seafoodai/seafood-terminal/pkg/dataset"
	"github.com/seafoodai/seafood-terminal/pkg/pipeline"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if err := config.WriteDefaults(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var warmCmd = &cobra.Command{
	Use:   "warm [dataset...]",
	Short: "Load datasets into the cache",
	Long:  "Load the named datasets, or all of them, fetching only those whose cache entry has expired.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		loadErr := a.board.Initialize(cmd.Context(), args...)

		names := args
		if len(names) == 0 {
			names = a.board.Names()
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATASET\tSTATE\tRECORDS\tSOURCE")
		for _, name := range names {
			p, err := a.board.Pipeline(name)
			if err != nil {
				return err
			}
			view := p.View()
			source := "network"
			if view.FromCache {
				source = "cache"
			}
			if view.State == pipeline.StateError {
				source = view.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name, view.State, view.Page.TotalCount, source)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		return loadErr
	},
}

var (
	flagShowPage     int
	flagShowPageSize int
	flagShowFilters  []string
	flagShowRefresh  bool
)

var showCmd = &cobra.Command{
	Use:   "show <dataset>",
	Short: "Print one page of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(flagShowFilters)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.board.Pipeline(args[0])
		if err != nil {
			return err
		}
		if flagShowRefresh {
			err = p.Refresh(cmd.Context())
		} else {
			err = p.Initialize(cmd.Context())
		}
		if err != nil {
			return err
		}

		widget, _ := a.board.Widget(args[0])
		view := p.Query(filters, flagShowPage, flagShowPageSize)
		return renderView(cmd.OutOrStdout(), widget.Title, widget.Columns, view)
	},
}

var labelsCmd = &cobra.Command{
	Use:   "labels <current> <total>",
	Short: "Print the compressed page labels for a page position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid current page %q", args[0])
		}
		total, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid total pages %q", args[1])
		}
		labels := dataset.LabelStrings(dataset.PageLabels(current, total))
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(labels, " "))
		return nil
	},
}

var (
	flagLoginEmail    string
	flagLoginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagLoginEmail == "" {
			return errors.New("--email is required")
		}
		password := flagLoginPassword
		if password == "" {
			p, err := readPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			password = p
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := client.NewAuthAPI(a.api).Login(cmd.Context(), client.LoginRequest{
			Email:    flagLoginEmail,
			Password: password,
		})
		if err != nil {
			return err
		}
		if resp.Token == "" {
			return errors.New("login response carried no token")
		}
		if err := a.tokens.SetToken(cmd.Context(), resp.Token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}

		name := flagLoginEmail
		if resp.User != nil && resp.User.Name != "" {
			name = resp.User.Name
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tokens.RemoveToken(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&flagShowPage, "page", 1, "page number")
	showCmd.Flags().IntVar(&flagShowPageSize, "page-size", 0, "records per page (default: configured page size)")
	showCmd.Flags().StringArrayVar(&flagShowFilters, "filter", nil, "field=value filter, repeatable")
	showCmd.Flags().BoolVar(&flagShowRefresh, "refresh", false, "ignore the cache and refetch")

	loginCmd.Flags().StringVar(&flagLoginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&flagLoginPassword, "password", "", "account password (prompted when omitted)")
}

func readPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(out, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// parseFilters turns field=value arguments into a filter set.
func parseFilters(args []string) (dataset.FilterSet, error) {
	filters := dataset.FilterSet{}
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q (want field=value)", arg)
		}
		filters[field] = value
	}
	return filters, nil
}

// renderView prints the page as a table followed by the page labels and
// the available filter values.
func renderView(out io.Writer, title string, columns []string, view pipeline.View) error {
	if title == "" {
		title = view.Dataset
	}
	fmt.Fprintf(out, "%s (%d records)\n\n", title, view.Page.TotalCount)

	if len(view.Page.Data) == 0 {
		fmt.Fprintln(out, "No data available")
	} else {
		if len(columns) == 0 {
			columns = recordColumns(view.Page.Data[0])
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))
		for _, r := range view.Page.Data {
			cells := make([]string, len(columns))
			for i, c := range columns {
				cells[i] = r.Field(c)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if view.Page.TotalPages > 1 {
		labels := make([]string, len(view.Labels))
		for i, l := range view.Labels {
			if l == strconv.Itoa(view.Page.Page) {
				l = "[" + l + "]"
			}
			labels[i] = l
		}
		fmt.Fprintf(out, "\nPage %d of %d: %s\n", view.Page.Page, view.Page.TotalPages, strings.Join(labels, " "))
	}

	fields := make([]string, 0, len(view.FilterOptions))
	for field := range view.FilterOptions {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(out, "%s: %s\n", field, strings.Join(view.FilterOptions[field], ", "))
	}
	return nil
}

func recordColumns(r dataset.Record) []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
