package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vearutop/imaging"
)

var (
	inspectFrom string
	inspectXMP  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]...",
	Short: "Print resolution, ICC profile and XMP properties",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFrom, "from", "", "input container (jpeg, tiff, png), detected from extension by default")
	inspectCmd.Flags().BoolVar(&inspectXMP, "xmp", false, "print the full XMP packet")
	rootCmd.AddCommand(inspectCmd)
}

func inputType(path, override string) (imaging.ContainerType, error) {
	if override != "" {
		return imaging.ParseContainerType(override)
	}
	return imaging.ParseContainerType(filepath.Ext(path))
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	for _, path := range args {
		ct, err := inputType(path, inspectFrom)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		img, err := imaging.ReadFile(path, ct)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		b := img.Bounds()
		fmt.Fprintf(out, "File:        %s\n", path)
		fmt.Fprintf(out, "Container:   %s\n", img.Container())
		fmt.Fprintf(out, "Dimensions:  %d x %d\n", b.Dx(), b.Dy())
		fmt.Fprintf(out, "Alpha:       %t\n", img.HasAlpha())
		fmt.Fprintf(out, "Resolution:  %d dpi\n", img.Res())
		if p := img.Profile(); p != nil {
			fmt.Fprintf(out, "ICC profile: %s\n", p)
			fmt.Fprintf(out, "  Profile ID: %s\n", p.CheckSum)
		} else {
			fmt.Fprintln(out, "ICC profile: none")
		}

		doc := img.XMP()
		fmt.Fprintf(out, "XMP:         %d properties\n", doc.Len())
		for _, ns := range doc.Namespaces() {
			for _, key := range doc.Keys(ns) {
				v, _ := doc.Get(ns, key)
				if text, ok := doc.GetText(ns, key); ok {
					fmt.Fprintf(out, "  %s%s = %q\n", ns, key, text)
				} else {
					fmt.Fprintf(out, "  %s%s (%s)\n", ns, key, v.Kind)
				}
			}
		}
		if inspectXMP && !doc.IsEmpty() {
			fmt.Fprintln(out, img.XMPString())
		}

		for _, w := range img.Warnings() {
			fmt.Fprintf(out, "Warning:     %v\n", w)
		}
		fmt.Fprintln(out)
	}

	return nil
}
