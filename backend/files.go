package backend

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// hrtfRatePlaceholder stands for the output sample rate in data set paths.
const hrtfRatePlaceholder = "%r"

// AppDataDir returns the per-user directory OpenAL Soft reads its
// configuration from.
func AppDataDir() (string, error) {
	return os.UserConfigDir()
}

// DefaultPaths returns the alsoft configuration file and the HRTF
// directory inside the application data directory.
func DefaultPaths() (Paths, error) {
	dir, err := AppDataDir()
	if err != nil {
		return Paths{}, err
	}
	name := "alsoft.conf"
	if runtime.GOOS == "windows" {
		name = "alsoft.ini"
	}
	return Paths{
		ConfigFile: filepath.Join(dir, name),
		HrtfDirs:   []string{filepath.Join(dir, "openal", "hrtf")},
	}, nil
}

// InstallHrtfData copies the *.mhr files of srcDir into dstDir unless a
// file of the same name exists. It returns the number of copied files.
func InstallHrtfData(srcDir, dstDir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(srcDir, "*.mhr"))
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("create HRTF directory: %w", err)
	}

	copied := 0
	for _, src := range matches {
		dst := filepath.Join(dstDir, filepath.Base(src))
		if _, err := os.Stat(dst); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return copied, err
		}
		if err := copyFile(src, dst); err != nil {
			return copied, fmt.Errorf("install %s: %w", filepath.Base(src), err)
		}
		copied++
	}

	logrus.WithFields(logrus.Fields{
		"function": "InstallHrtfData",
		"source":   srcDir,
		"target":   dstDir,
		"copied":   copied,
	}).Debug("Installed HRTF data")
	return copied, nil
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
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// HrtfDataSets lists the *.mhr files of dirs made for sampleRate, with the
// rate replaced by %r as OpenAL Soft expects. Default data sets are
// skipped.
func HrtfDataSets(dirs []string, sampleRate int) []string {
	rate := strconv.Itoa(sampleRate)
	seen := make(map[string]struct{})
	var sets []string

	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.mhr"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			base := filepath.Base(path)
			if strings.Contains(strings.ToLower(base), "default") || !strings.Contains(base, rate) {
				continue
			}
			set := filepath.Join(dir, strings.ReplaceAll(base, rate, hrtfRatePlaceholder))
			if _, ok := seen[set]; ok {
				continue
			}
			seen[set] = struct{}{}
			sets = append(sets, set)
		}
	}
	sort.Strings(sets)
	return sets
}

// WriteOpenALConf writes an OpenAL Soft configuration selecting dataSet
// as the HRTF table. An empty dataSet leaves the library default.
func WriteOpenALConf(path, dataSet string) error {
	if path == "" {
		return ErrNoConfigPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create configuration directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Written by the TessuMod plugin.\n")
	b.WriteString("[general]\n")
	if dataSet != "" {
		fmt.Fprintf(&b, "hrtf_tables = %s\n", filepath.ToSlash(dataSet))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
