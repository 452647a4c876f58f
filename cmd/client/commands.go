package main

import (
	"cmp"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/fit/internal/client"
	"github.com/atinyakov/fit/internal/models"
)

const defaultURL = "http://localhost:8080"

// app is the state shared by every command of one process, including all
// commands run from the interactive shell.
type app struct {
	baseURL  string
	out      io.Writer
	prompter *client.Prompter
	api      *client.Client
	inShell  bool
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{
		baseURL:  defaultURL,
		out:      out,
		prompter: client.NewPrompter(in, out),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "fitctl",
		Short:         "Manage fitness tracker connections and read metrics",
		Version:       fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.api = client.New(a.baseURL, nil)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.PersistentFlags().StringVar(&a.baseURL, "url", a.baseURL, "server base URL")

	root.AddCommand(
		newListCmd(a),
		newTypesCmd(a),
		newConnectCmd(a),
		newActivateCmd(a),
		newStatusCmd(a),
		newRemoveCmd(a),
		newMetricsCmd(a),
		newHistoryCmd(a),
		newMeasureCmd(a),
	)
	if !a.inShell {
		root.AddCommand(newShellCmd(a))
	}
	return root
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List connected trackers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := a.api.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(a.out, "No trackers connected")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TRACKER\tUSERNAME\tACTIVE")
			for _, info := range infos {
				active := ""
				if info.Active {
					active = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Type, info.Username, active)
			}
			return tw.Flush()
		},
	}
}

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the tracker types the server supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := a.api.Types(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range types {
				fmt.Fprintln(a.out, t)
			}
			return nil
		},
	}
}

func newConnectCmd(a *app) *cobra.Command {
	var (
		username  string
		password  string
		setActive bool
	)
	cmd := &cobra.Command{
		Use:   "connect <tracker>",
		Short: "Store credentials for a tracker",
		Long: "Store credentials for a tracker. The first tracker connected becomes " +
			"the active one. Missing username or password are prompted for. " +
			"Run 'fitctl types' for the supported trackers.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username == "" {
				if username, err = a.prompter.Line("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.prompter.Password("Password: "); err != nil {
					return err
				}
			}

			res, err := a.api.Connect(cmd.Context(), models.TrackerType(args[0]), username, password, setActive)
			if err != nil {
				return err
			}
			if res.Active {
				fmt.Fprintf(a.out, "Connected %s (active)\n", res.TrackerType)
			} else {
				fmt.Fprintf(a.out, "Connected %s\n", res.TrackerType)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "tracker account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "tracker account password")
	cmd.Flags().BoolVar(&setActive, "set-active", false, "make this the active tracker")
	return cmd
}

func newActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <tracker>",
		Short: "Select the active tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.SetActive(cmd.Context(), models.TrackerType(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Active tracker: %s\n", args[0])
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active, ok, err := a.api.Active(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.out, "No active tracker")
				return nil
			}
			fmt.Fprintf(a.out, "Active tracker: %s\n", active)
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <tracker>",
		Short: "Delete the stored credentials of a tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.Remove(cmd.Context(), models.TrackerType(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %s\n", args[0])
			return nil
		},
	}
}

func newMetricsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Fetch current metrics from the active tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.api.Metrics(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Tracker:            %s\n", r.Tracker)
			fmt.Fprintf(a.out, "Resting heart rate: %.0f bpm\n", r.RestingHeartRate)
			fmt.Fprintf(a.out, "Calories burned:    %.0f kcal\n", r.CaloriesBurned)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded readings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := a.api.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(readings) == 0 {
				fmt.Fprintln(a.out, "No readings recorded")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RECORDED\tTRACKER\tRHR\tKCAL")
			for _, r := range readings {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					r.RecordedAt.Local().Format(time.DateTime),
					r.Tracker,
					strconv.FormatFloat(r.RestingHeartRate, 'f', 0, 64),
					strconv.FormatFloat(r.CaloriesBurned, 'f', 0, 64),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of readings (server default when 0)")
	return cmd
}
