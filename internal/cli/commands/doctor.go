package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/slickdata/internal/credstore"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // text or json
}

// DoctorCheck is one line of the doctor report.
type DoctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "warn", "error"
	Detail string `json:"detail"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local setup",
		Long: `Report where configuration, connections and history live, which
database backends are compiled in, and whether the OS keyring works.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup := NewCommandContext(cmd)
			defer cleanup()

			checks := runDoctor(cc)
			if opts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(checks)
			}
			renderDoctor(cmd.OutOrStdout(), checks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runDoctor(cc *CommandContext) []DoctorCheck {
	cfg := cc.Cfg
	var checks []DoctorCheck

	configFile := cfg.FileUsed
	if configFile == "" {
		configFile = "(none, using defaults)"
	}
	checks = append(checks, DoctorCheck{Name: "config", Status: "ok", Detail: configFile})

	checks = append(checks, connectionsCheck(cc))

	switch err := credstore.Probe(cc.Store.SecretStore()); {
	case err == nil:
		checks = append(checks, DoctorCheck{Name: "secure storage", Status: "ok", Detail: credstore.ServiceName})
	case errors.Is(err, credstore.ErrUnavailable) && !cfg.SecureStorage:
		checks = append(checks, DoctorCheck{Name: "secure storage", Status: "warn", Detail: "disabled by configuration"})
	default:
		checks = append(checks, DoctorCheck{Name: "secure storage", Status: "warn", Detail: err.Error()})
	}

	if cfg.History {
		checks = append(checks, DoctorCheck{Name: "history", Status: "ok", Detail: cfg.HistoryFile})
	} else {
		checks = append(checks, DoctorCheck{Name: "history", Status: "warn", Detail: "disabled"})
	}

	checks = append(checks,
		DoctorCheck{Name: "log file", Status: "ok", Detail: cfg.LogFile()},
		DoctorCheck{Name: "backends", Status: "ok", Detail: strings.Join(adapterNames(), ", ")},
		terminalCheck(termenv.EnvColorProfile()),
	)
	return checks
}

// terminalCheck reports the color support the browser will get.
func terminalCheck(p termenv.Profile) DoctorCheck {
	switch p {
	case termenv.TrueColor:
		return DoctorCheck{Name: "terminal", Status: "ok", Detail: "true color"}
	case termenv.ANSI256:
		return DoctorCheck{Name: "terminal", Status: "ok", Detail: "256 colors"}
	case termenv.ANSI:
		return DoctorCheck{Name: "terminal", Status: "ok", Detail: "16 colors"}
	}
	return DoctorCheck{Name: "terminal", Status: "warn", Detail: "no color support detected"}
}

func connectionsCheck(cc *CommandContext) DoctorCheck {
	path := cc.Store.Path()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DoctorCheck{Name: "connections", Status: "ok", Detail: path + " (not created yet)"}
	}
	conns, err := cc.Store.Load()
	if err != nil {
		return DoctorCheck{Name: "connections", Status: "error", Detail: err.Error()}
	}
	unusable := 0
	for _, c := range conns {
		if !c.Usable() {
			unusable++
		}
	}
	detail := fmt.Sprintf("%s (%d saved)", path, len(conns))
	if unusable > 0 {
		return DoctorCheck{Name: "connections", Status: "warn", Detail: fmt.Sprintf("%s, %d without a secret", detail, unusable)}
	}
	return DoctorCheck{Name: "connections", Status: "ok", Detail: detail}
}

func renderDoctor(w io.Writer, checks []DoctorCheck) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})
	title := cases.Title(language.English)
	for _, c := range checks {
		t.AppendRow(table.Row{title.String(c.Name), c.Status, c.Detail})
	}
	t.Render()
}
