package cmd

import (
	"fmt"
	"strings"

	"github.com/SaiNageswarS/krishi-boot/services"
	"github.com/spf13/cobra"
)

var askLanguage string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the farm assistant one question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getCancellableContext()
		a := bootstrap(ctx, true)

		reply, err := a.chat.Process(ctx, &services.ChatRequest{
			Message:  strings.Join(args, " "),
			Language: askLanguage,
		}, nil)
		if reply != nil {
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
		}
		return err
	},
}

func init() {
	askCmd.Flags().StringVarP(&askLanguage, "language", "l", "auto", "response language code, or auto to detect from the question")
}
