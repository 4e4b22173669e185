package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-kiosk/internal/api"
	"github.com/kozaktomas/face-kiosk/internal/listview"
	"github.com/kozaktomas/face-kiosk/internal/registration"
	"github.com/kozaktomas/face-kiosk/internal/ui"
)

var registerCmd = &cobra.Command{
	Use:   "register <name> <image-path>",
	Short: "Register a person with a reference image",
	Long: `Register a person with the recognition backend.

The image should show exactly one face. Registering an existing name
updates that person's reference image.

Example:
  face-kiosk register "Ana Souza" ./ana.jpg`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

var registerDirCmd = &cobra.Command{
	Use:   "register-dir <folder-path>",
	Short: "Register every face image in a folder",
	Long: `Register every png, jpg and jpeg file in a folder (non-recursive).

The person name is derived from the file name: underscores become spaces
and every word is capitalized, so "ana_souza.jpg" registers "Ana Souza".
A failed file is reported and the remaining files are still registered.

Example:
  face-kiosk register-dir ./known_faces
  face-kiosk register-dir --skip-existing ./known_faces`,
	Args: cobra.ExactArgs(1),
	RunE: runRegisterDir,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(registerDirCmd)
	registerDirCmd.Flags().Bool("skip-existing", false, "Skip files whose person is already registered")
	registerDirCmd.Flags().Bool("dry-run", false, "Show the derived names without registering")
}

func runRegister(cmd *cobra.Command, args []string) error {
	name, imagePath := args[0], args[1]

	img, err := registration.LoadImageFile(imagePath)
	if err != nil {
		return err
	}

	app, err := newApp(ui.NewTextRenderer(os.Stdout))
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Registration.Submit(cmd.Context(), registration.NewForm(name, img)); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// isFaceImage reports whether name has one of the extensions the backend accepts
func isFaceImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// listFaceImages returns the face images in dir, sorted by file name.
func listFaceImages(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read folder %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isFaceImage(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func runRegisterDir(cmd *cobra.Command, args []string) error {
	skipExisting := mustGetBool(cmd, "skip-existing")
	dryRun := mustGetBool(cmd, "dry-run")

	filePaths, err := listFaceImages(args[0])
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		fmt.Println("No face images found in the folder.")
		return nil
	}

	if dryRun {
		for _, filePath := range filePaths {
			fmt.Printf("%s -> %s\n", filepath.Base(filePath), registration.NameFromFile(filePath))
		}
		return nil
	}

	// Per-file status goes to the progress summary, not the terminal.
	app, err := newApp(ui.NewBoard())
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if skipExisting {
		filePaths, err = withoutRegistered(ctx, app.Client, filePaths)
		if err != nil {
			return err
		}
		if len(filePaths) == 0 {
			fmt.Println("Every person in the folder is already registered.")
			return nil
		}
	}

	fmt.Printf("Found %d face image(s) to register\n", len(filePaths))

	bar := progressbar.NewOptions(len(filePaths),
		progressbar.OptionSetDescription("Registering"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var registered int
	var registerErrors []string
	for _, filePath := range filePaths {
		fileName := filepath.Base(filePath)
		name := registration.NameFromFile(filePath)

		img, err := registration.LoadImageFile(filePath)
		if err != nil {
			registerErrors = append(registerErrors, fmt.Sprintf("%s: %v", fileName, err))
			bar.Add(1)
			continue
		}

		if _, err := app.Registration.Submit(ctx, registration.NewForm(name, img)); err != nil {
			registerErrors = append(registerErrors, fmt.Sprintf("%s (%s): %s", fileName, name, ui.ErrorText(err, app.Config.Messages)))
			bar.Add(1)
			continue
		}
		registered++
		bar.Add(1)
	}
	fmt.Println()

	for _, errMsg := range registerErrors {
		fmt.Printf("Failed: %s\n", errMsg)
	}
	fmt.Printf("Registered %d of %d person(s)\n", registered, len(filePaths))

	if registered == 0 {
		return fmt.Errorf("no person was registered successfully")
	}
	return nil
}

// withoutRegistered drops the files whose derived name matches a registered person.
func withoutRegistered(ctx context.Context, people listview.PeopleLister, filePaths []string) ([]string, error) {
	existing, err := people.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered people: %w", err)
	}

	var remaining []string
	for _, filePath := range filePaths {
		name := registration.NameFromFile(filePath)
		if slices.ContainsFunc(existing, func(p api.Person) bool { return registration.SameName(p.Name, name) }) {
			fmt.Printf("Skipping %s: %s is already registered\n", filepath.Base(filePath), name)
			continue
		}
		remaining = append(remaining, filePath)
	}
	return remaining, nil
}
