package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ali01/linkweave/internal/linkservice"
)

var moveTargetFolder string

func newMoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <file-path> <new-path>",
		Short: "Move or rename a document, rewriting every wikilink that points at it",
		Args:  cobra.ExactArgs(2),
		RunE:  runMove,
	}
	cmd.Flags().StringVar(&moveTargetFolder, "target-folder", "", "move into this named folder instead of the source folder")
	return cmd
}

func runMove(cmd *cobra.Command, args []string) error {
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
	text, err := svc.MoveDocument(args[0], args[1], moveTargetFolder)
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
