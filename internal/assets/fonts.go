package assets

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/abrezinsky/badgegen/internal/errors"
)

// FontDir returns the per-user font directory svg2pdf searches on goos
func FontDir(goos, home string) (string, error) {
	switch goos {
	case "linux":
		return filepath.Join(home, ".local", "share", "fonts"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Fonts"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Microsoft", "Windows", "Fonts"), nil
	default:
		return "", errors.Configf("unsupported platform: %s", goos)
	}
}

// InstallUserFonts copies the event fonts into the current user's font directory
func InstallUserFonts(dir string) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "locate home directory")
	}
	return InstallFonts(dir, runtime.GOOS, home)
}

// InstallFonts copies every .ttf under dir/assets into the font directory
// for goos and returns the installed paths in name order. Existing files
// are overwritten.
func InstallFonts(dir, goos, home string) ([]string, error) {
	dest, err := FontDir(goos, home)
	if err != nil {
		return nil, err
	}

	fonts, err := filepath.Glob(filepath.Join(dir, SubDir, "*.ttf"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "list fonts")
	}
	sort.Strings(fonts)
	if len(fonts) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "create font directory %s", dest)
	}

	installed := make([]string, 0, len(fonts))
	for _, src := range fonts {
		dst := filepath.Join(dest, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return installed, errors.Wrapf(err, errors.ErrConfig, "install font %s", filepath.Base(src))
		}
		installed = append(installed, dst)
	}
	return installed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
