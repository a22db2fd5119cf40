package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ali01/linkweave/internal/linkservice"
)

func newGetLinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get-links <file-path>",
		Short: "Print the backlinks and forward links of a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runGetLinks,
	}
}

func runGetLinks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v, err := loadVault(cfg)
	if err != nil {
		return err
	}
	if v.manager != nil {
		defer v.manager.Stop()
	}

	svc := linkservice.New(v.store, v.resolver)
	text, err := svc.GetLinks(args[0])
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
