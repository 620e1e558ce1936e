package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/lexagent/plugin/drafter"
)

func newTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage document templates",
	}

	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default legal notice, consumer complaint and RTI templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := loadProfile()
			if err := p.Validate(); err != nil {
				return err
			}
			written, err := drafter.WriteDefaultTemplates(p.TemplateDir, overwrite)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(written) == 0 {
				fmt.Fprintf(out, "Templates already present in %s (use --overwrite to replace them)\n", p.TemplateDir)
				return nil
			}
			for _, name := range written {
				fmt.Fprintf(out, "Created template: %s\n", name)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing templates")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List installed templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := loadProfile()
			if err := p.Validate(); err != nil {
				return err
			}
			names, err := drafter.NewTemplateStore(p.TemplateDir).List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, listCmd)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
