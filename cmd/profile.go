package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-organizer/internal/output"
)

// ProfileRow is one line of `profile list`.
type ProfileRow struct {
	Name         string `yaml:"name"          json:"name"`
	DisplayOrder int    `yaml:"display_order" json:"display_order"`
	Apps         int    `yaml:"apps"          json:"apps"`
	Wallpaper    string `yaml:"wallpaper,omitempty" json:"wallpaper,omitempty"`
	Desktop      string `yaml:"desktop,omitempty"   json:"desktop,omitempty"`
}

// ProfileResult is the output of the mutating profile subcommands.
type ProfileResult struct {
	OK      bool     `yaml:"ok"                json:"ok"`
	Action  string   `yaml:"action"            json:"action"`
	Profile string   `yaml:"profile,omitempty" json:"profile,omitempty"`
	To      string   `yaml:"to,omitempty"      json:"to,omitempty"`
	Order   []string `yaml:"order,omitempty"   json:"order,omitempty"`
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stored workspace profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles in display order",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <profile>",
	Short: "Print a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <profile> <new-name>",
	Short: "Rename a profile",
	Long:  "Rename a profile. Fails when the profile does not exist or the new name is taken.",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileRename,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileReorderCmd = &cobra.Command{
	Use:   "reorder <profile>...",
	Short: "Set the display order of profiles",
	Long:  "Put the named profiles first, in the given order. Profiles not named keep their relative order after them.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProfileReorder,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileRenameCmd, profileDeleteCmd, profileReorderCmd)
	profileListCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
	profileShowCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runProfileList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	all, err := store.LoadAll()
	if err != nil {
		return err
	}
	rows := make([]ProfileRow, 0, len(all))
	for _, p := range all {
		rows = append(rows, ProfileRow{
			Name:         p.Name,
			DisplayOrder: p.DisplayOrder,
			Apps:         len(p.Apps),
			Wallpaper:    p.WallpaperPath,
			Desktop:      p.VirtualDesktopID,
		})
	}
	return output.Print(rows)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	p, err := store.Load(args[0])
	if err != nil {
		return err
	}
	return output.Print(p)
}

func runProfileRename(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Rename(args[0], args[1]); err != nil {
		return err
	}
	return output.Print(ProfileResult{OK: true, Action: "rename", Profile: args[0], To: args[1]})
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		return err
	}
	return output.Print(ProfileResult{OK: true, Action: "delete", Profile: args[0]})
}

func runProfileReorder(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.Reorder(args); err != nil {
		return err
	}
	names, err := store.Names()
	if err != nil {
		return err
	}
	return output.Print(ProfileResult{OK: true, Action: "reorder", Order: names})
}
