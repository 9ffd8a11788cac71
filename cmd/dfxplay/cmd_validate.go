package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var fontPath string
	var verifyLevelsFlag bool
	var rate float64

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lex, parse, and schema-check a drum font file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fontPath == "" {
				return fmt.Errorf("--font is required")
			}

			root, log, err := loadFont(fontPath)
			if err != nil {
				return err
			}

			if !log.OK() {
				for _, e := range log.Errors {
					fmt.Println(e.Error())
				}
				return fmt.Errorf("%d schema error(s)", len(log.Errors))
			}
			fmt.Println("ok: no schema errors")

			if !verifyLevelsFlag {
				return nil
			}

			font, berrs := buildFont(root, fontPath, rate)
			for _, e := range berrs {
				fmt.Println("warning:", e)
			}

			mismatches := verifyLevels(font)
			if len(mismatches) == 0 {
				fmt.Println("ok: authored peak/rms match measured levels")
				return nil
			}
			for _, m := range mismatches {
				fmt.Println(m)
			}
			return fmt.Errorf("%d level mismatch(es)", len(mismatches))
		},
	}

	cmd.Flags().StringVar(&fontPath, "font", "", "path to a drum font file")
	cmd.Flags().BoolVar(&verifyLevelsFlag, "verify-levels", false, "load every robin and sanity-check authored peak/rms against measured values")
	cmd.Flags().Float64Var(&rate, "rate", 44100, "output rate used to build the font for level verification")
	return cmd
}
