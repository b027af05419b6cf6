package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dialogic/internal/types"
)

var (
	profileLanguageFlag     string
	profileBaseLanguageFlag string
	profileLevelFlag        string
	profileInterestsFlag    string
)

// profileCmd manages the learner profile
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the learner profile",
	Long: `View or update the learner profile that shapes every scenario:
the target language, the feedback language, the CEFR level, and the
interests scenarios are themed around.`,
}

// profileSetCmd updates profile fields
var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update learner profile fields",
	Long: `Update one or more profile fields. Unset flags keep their stored
value.

Example:
  dialogic profile set --language Spanish --base-language English --level B1 --interests "travel, cooking"`,
	RunE: runProfileSet,
}

// profileShowCmd prints the stored profile
var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored learner profile",
	RunE:  runProfileShow,
}

func init() {
	profileSetCmd.Flags().StringVar(&profileLanguageFlag, "language", "", "Target language to practice")
	profileSetCmd.Flags().StringVar(&profileBaseLanguageFlag, "base-language", "", "Language feedback is written in")
	profileSetCmd.Flags().StringVar(&profileLevelFlag, "level", "", "CEFR proficiency level (A1-C2)")
	profileSetCmd.Flags().StringVar(&profileInterestsFlag, "interests", "", "Topics scenarios are themed around, e.g. \"travel, cooking\"")
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := st.GetProfile()
	if err != nil {
		return err
	}

	profile = mergeProfile(profile, types.UserProfile{
		Language:     profileLanguageFlag,
		BaseLanguage: profileBaseLanguageFlag,
		Level:        profileLevelFlag,
		Interests:    profileInterestsFlag,
	})

	if err := st.SaveProfile(profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Println("Profile updated.")
	printProfile(profile)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	_, st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := st.GetProfile()
	if err != nil {
		return err
	}

	if profile == (types.UserProfile{}) {
		fmt.Println("No profile stored. Defaults apply: Spanish practice, English feedback, level B1.")
		fmt.Println("Run 'dialogic profile set' to change them.")
		return nil
	}

	printProfile(profile)
	return nil
}

func printProfile(p types.UserProfile) {
	value := func(v, fallback string) string {
		if v == "" {
			return fallback + " (default)"
		}
		return v
	}

	fmt.Printf("  Language:      %s\n", value(p.Language, "Spanish"))
	fmt.Printf("  Base language: %s\n", value(p.BaseLanguage, "English"))
	fmt.Printf("  Level:         %s\n", value(p.Level, "B1"))
	fmt.Printf("  Interests:     %s\n", value(p.Interests, "general topics"))
}

// mergeProfile overlays non-empty update fields on the stored profile.
func mergeProfile(stored, update types.UserProfile) types.UserProfile {
	if update.Language != "" {
		stored.Language = update.Language
	}
	if update.BaseLanguage != "" {
		stored.BaseLanguage = update.BaseLanguage
	}
	if update.Level != "" {
		stored.Level = update.Level
	}
	if update.Interests != "" {
		stored.Interests = update.Interests
	}
	return stored
}
